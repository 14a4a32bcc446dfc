package bot

import (
	"context"
	"testing"

	"wellnessbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledgerWithPaidBooking() *fakeLedger {
	led := twoCounselors()
	led.bookings = append(led.bookings, &models.Booking{
		BookingID:     "abc12345",
		UserPhone:     phone,
		CounselorID:   "1",
		Date:          "2024-01-02",
		TimeSlot:      "10:00",
		PaymentStatus: models.PaymentPaid,
		BookingStatus: models.BookingActive,
	})
	return led
}

func TestRescheduleHappyPath(t *testing.T) {
	ctx := context.Background()
	h := newHarness(ledgerWithPaidBooking())

	_, _ = h.handler.Handle(ctx, phone, "hi")
	res, err := h.handler.Handle(ctx, phone, "reschedule_btn")
	require.NoError(t, err)
	assert.Equal(t, "sent_reschedule_list", res.Status)
	require.Len(t, h.messenger.lists, 1)
	assert.Equal(t, "abc12345", h.messenger.lastList().sections[0].Rows[0].ID)

	res, err = h.handler.Handle(ctx, phone, "abc12345")
	require.NoError(t, err)
	assert.Equal(t, "sent_date_buttons", res.Status)
	assert.Equal(t, models.StateRescheduleDate, h.state(phone))

	res, err = h.handler.Handle(ctx, phone, "2024-01-03")
	require.NoError(t, err)
	assert.Equal(t, "sent_slots_list", res.Status)
	assert.Equal(t, models.StateRescheduleSlot, h.state(phone))

	res, err = h.handler.Handle(ctx, phone, "14:00")
	require.NoError(t, err)
	assert.Equal(t, "rescheduled", res.Status)
	assert.Equal(t, models.StateStart, h.state(phone))

	booking := h.ledger.bookings[0]
	assert.Equal(t, "2024-01-03", booking.Date)
	assert.Equal(t, "14:00", booking.TimeSlot)
	// Reschedule reuses the paid booking.
	assert.Equal(t, models.PaymentPaid, booking.PaymentStatus)
	assert.Equal(t, 0, h.payments.calls)
}

func TestRescheduleForeignBookingRefused(t *testing.T) {
	ctx := context.Background()
	led := ledgerWithPaidBooking()
	led.bookings = append(led.bookings, &models.Booking{
		BookingID:     "theirs99",
		UserPhone:     "919900000002",
		CounselorID:   "2",
		Date:          "2024-01-02",
		TimeSlot:      "11:00",
		PaymentStatus: models.PaymentPaid,
		BookingStatus: models.BookingActive,
	})
	h := newHarness(led)

	_, _ = h.handler.Handle(ctx, phone, "hi")
	_, _ = h.handler.Handle(ctx, phone, "reschedule_btn")
	res, err := h.handler.Handle(ctx, phone, "theirs99")
	require.NoError(t, err)
	assert.Equal(t, "invalid_booking", res.Status)
	assert.Equal(t, models.StateRescheduleSelect, h.state(phone))
	assert.Equal(t, 0, h.ledger.updateCalls)
}

func TestRescheduleWithNoActiveBookings(t *testing.T) {
	ctx := context.Background()
	h := newHarness(twoCounselors())

	_, _ = h.handler.Handle(ctx, phone, "hi")
	res, err := h.handler.Handle(ctx, phone, "reschedule")
	require.NoError(t, err)
	assert.Equal(t, "no_active_bookings", res.Status)
	assert.Equal(t, models.StateStart, h.state(phone))
}

// The occupied set includes the booking's own slot, so it is not offered for
// the same date. Free-text slot entry still accepts it, which harmlessly
// reschedules the booking onto itself.
func TestRescheduleOntoOwnCurrentSlot(t *testing.T) {
	ctx := context.Background()
	h := newHarness(ledgerWithPaidBooking())

	_, _ = h.handler.Handle(ctx, phone, "hi")
	_, _ = h.handler.Handle(ctx, phone, "reschedule_btn")
	_, _ = h.handler.Handle(ctx, phone, "abc12345")

	res, err := h.handler.Handle(ctx, phone, "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, "sent_slots_list", res.Status)
	assert.Len(t, h.messenger.lastList().sections[0].Rows, 6)

	res, err = h.handler.Handle(ctx, phone, "10:00")
	require.NoError(t, err)
	assert.Equal(t, "rescheduled", res.Status)
	booking := h.ledger.bookings[0]
	assert.Equal(t, "2024-01-02", booking.Date)
	assert.Equal(t, "10:00", booking.TimeSlot)
}

func TestCancelBookingIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(ledgerWithPaidBooking())

	require.NoError(t, h.handler.CancelBooking(ctx, phone, "abc12345"))
	assert.Equal(t, models.BookingCancelled, h.ledger.bookings[0].BookingStatus)

	// Second cancel is a no-op success with no further mutation.
	calls := h.ledger.updateCalls
	require.NoError(t, h.handler.CancelBooking(ctx, phone, "abc12345"))
	assert.Equal(t, calls, h.ledger.updateCalls)
}

func TestCancelForeignBookingRefused(t *testing.T) {
	ctx := context.Background()
	h := newHarness(ledgerWithPaidBooking())

	err := h.handler.CancelBooking(ctx, "919900000002", "abc12345")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, models.BookingActive, h.ledger.bookings[0].BookingStatus)
}
