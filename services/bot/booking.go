package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wellnessbot/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// startBookingFlow lists active counselors unless the user has hit the
// lifetime PAID-booking cap.
func (h *Handler) startBookingFlow(ctx context.Context, phone string, session *models.Session) (Result, error) {
	count, err := h.Ledger.CountPaidBookings(ctx, phone)
	if err != nil {
		h.Logger.Error("failed to count paid bookings", zap.String("phone", phone), zap.Error(err))
		h.sendText(ctx, phone, "Something went wrong. Please try again in a moment.")
		return Result{Status: "error"}, err
	}
	if count >= h.MaxPaidBookings {
		h.sendText(ctx, phone, fmt.Sprintf(
			"You have reached the maximum of %d booked sessions. Please contact us directly for further appointments.",
			h.MaxPaidBookings))
		return Result{Status: "booking_limit_reached"}, nil
	}

	counselors, err := h.Ledger.ListActiveCounselors(ctx)
	if err != nil {
		h.Logger.Error("failed to list counselors", zap.Error(err))
		h.sendText(ctx, phone, "Something went wrong. Please try again in a moment.")
		return Result{Status: "error"}, err
	}
	if len(counselors) == 0 {
		h.sendText(ctx, phone, "Sorry, no counselors are available right now.")
		return Result{Status: "no_counselors"}, nil
	}

	// Images first, then the selection list.
	for _, c := range counselors {
		if c.ImageURL == "" {
			continue
		}
		caption := fmt.Sprintf("*%s*\n%s\nID: %s", c.Name, c.Description, c.ID)
		if err := h.Messenger.SendImage(ctx, phone, c.ImageURL, caption); err != nil {
			h.Logger.Error("failed to send counselor image", zap.String("counselor", c.ID), zap.Error(err))
		}
	}

	rows := make([]models.ListRow, 0, len(counselors))
	for _, c := range counselors {
		desc := c.Description
		if desc == "" {
			desc = "Book Now"
		}
		rows = append(rows, models.ListRow{
			ID:          c.ID,
			Title:       truncate(c.Name, 24),
			Description: truncate(desc, 72),
		})
	}
	sections := []models.ListSection{{Title: "Select Counselor", Rows: rows}}
	if err := h.Messenger.SendSelectionList(ctx, phone,
		"Tap below to choose your counselor:", "View Options", sections); err != nil {
		h.Logger.Error("failed to send counselor list", zap.Error(err))
	}

	session.State = models.StateSelectCounselor
	if err := h.Sessions.Put(ctx, phone, session); err != nil {
		return Result{Status: "error"}, err
	}
	return Result{Status: "sent_counselors"}, nil
}

func (h *Handler) handleSelectCounselor(ctx context.Context, phone, body string, session *models.Session) (Result, error) {
	// Accept "1", "1. Dr. Smith" and similar: the token before the first
	// dot is the counselor id.
	counselorID := strings.TrimSpace(strings.SplitN(body, ".", 2)[0])
	if counselorID == "" {
		h.sendText(ctx, phone, "Invalid selection. Please reply with the ID of the counselor.")
		return Result{Status: "invalid_selection"}, nil
	}

	session.Data.CounselorID = counselorID
	session.State = models.StateSelectDate
	if err := h.Sessions.Put(ctx, phone, session); err != nil {
		return Result{Status: "error"}, err
	}
	return h.sendDateSelection(ctx, phone, "Please select a date for your appointment:")
}

// sendDateSelection offers the next three calendar days as quick replies
// (the Cloud API caps reply buttons at 3).
func (h *Handler) sendDateSelection(ctx context.Context, phone, bodyText string) (Result, error) {
	today := h.Clock()
	buttons := []models.Button{
		{ID: today.Format("2006-01-02"), Title: "Today"},
		{ID: today.AddDate(0, 0, 1).Format("2006-01-02"), Title: "Tomorrow"},
		{ID: today.AddDate(0, 0, 2).Format("2006-01-02"), Title: "Day After"},
	}
	if err := h.Messenger.SendButtonMenu(ctx, phone, bodyText, buttons); err != nil {
		h.Logger.Error("failed to send date buttons", zap.Error(err))
	}
	return Result{Status: "sent_date_buttons"}, nil
}

func (h *Handler) handleSelectDate(ctx context.Context, phone, body string, session *models.Session) (Result, error) {
	date, ok := parseDateToken(body)
	if !ok {
		h.sendText(ctx, phone, "Please select a valid date (e.g. 2024-10-10 or tap one of the buttons).")
		return Result{Status: "invalid_date"}, nil
	}

	session.Data.Date = date
	available, err := h.availableSlots(ctx, date, session.Data.CounselorID)
	if err != nil {
		h.Logger.Error("failed to compute availability", zap.Error(err))
		h.sendText(ctx, phone, "Something went wrong. Please try again in a moment.")
		return Result{Status: "error"}, err
	}
	if len(available) == 0 {
		if err := h.Sessions.Put(ctx, phone, session); err != nil {
			return Result{Status: "error"}, err
		}
		h.sendText(ctx, phone, fmt.Sprintf("No slots available on %s. Please choose another date.", date))
		return Result{Status: "no_slots"}, nil
	}

	session.State = models.StateSelectSlot
	if err := h.Sessions.Put(ctx, phone, session); err != nil {
		return Result{Status: "error"}, err
	}
	h.sendSlotList(ctx, phone, date, available)
	return Result{Status: "sent_slots_list"}, nil
}

func (h *Handler) sendSlotList(ctx context.Context, phone, date string, slots []string) {
	rows := make([]models.ListRow, 0, len(slots))
	for _, slot := range slots {
		rows = append(rows, models.ListRow{ID: slot, Title: slot})
	}
	sections := []models.ListSection{{Title: "Slots for " + date, Rows: rows}}
	if err := h.Messenger.SendSelectionList(ctx, phone,
		fmt.Sprintf("Available slots for %s:", date), "Select Time", sections); err != nil {
		h.Logger.Error("failed to send slot list", zap.Error(err))
	}
}

func (h *Handler) handleSelectSlot(ctx context.Context, phone, body string, session *models.Session) (Result, error) {
	slot := strings.TrimSpace(body)
	if slot == "" {
		h.sendText(ctx, phone, "Please type a time slot.")
		return Result{Status: "invalid_slot"}, nil
	}

	counselorID := session.Data.CounselorID
	date := session.Data.Date

	// Serialize with other attempts on the same slot; availability is
	// re-checked under the lock because listing and holding are separate
	// ledger operations.
	unlock := h.slotLocks.lock(counselorID + "|" + date + "|" + slot)
	defer unlock()

	booked, err := h.Ledger.ListPaidSlots(ctx, date, counselorID)
	if err != nil {
		h.Logger.Error("failed to re-check slot availability", zap.Error(err))
		h.sendText(ctx, phone, "Something went wrong. Please try again in a moment.")
		return Result{Status: "error"}, err
	}
	for _, b := range booked {
		if b == slot {
			h.sendText(ctx, phone, fmt.Sprintf("Sorry, %s was just taken. Please pick another slot.", slot))
			return Result{Status: "slot_taken"}, nil
		}
	}

	bookingID := uuid.New().String()[:8]
	booking := models.Booking{
		BookingID:     bookingID,
		UserPhone:     phone,
		CounselorID:   counselorID,
		Date:          date,
		TimeSlot:      slot,
		PaymentStatus: models.PaymentPending,
		Timestamp:     h.Clock(),
		BookingStatus: models.BookingActive,
	}
	if err := h.Ledger.CreateBookingHold(ctx, booking); err != nil {
		h.Logger.Error("failed to create booking hold", zap.String("booking", bookingID), zap.Error(err))
		h.sendText(ctx, phone, "We couldn't hold that slot. Please try again.")
		return Result{Status: "error"}, err
	}

	session.Data.TimeSlot = slot
	session.State = models.StatePaymentPending
	if err := h.Sessions.Put(ctx, phone, session); err != nil {
		return Result{Status: "error"}, err
	}

	link, err := h.Payments.CreatePaymentLink(ctx, h.AmountPaise,
		"Booking "+bookingID, phone, bookingID)
	if err != nil {
		// The hold is already committed; a link failure must not undo it.
		h.Logger.Error("failed to create payment link", zap.String("booking", bookingID), zap.Error(err))
		h.sendText(ctx, phone, "Your slot is held, but we couldn't generate a payment link. Please try again shortly.")
		return Result{Status: "payment_link_failed"}, nil
	}

	h.sendText(ctx, phone, fmt.Sprintf("Slot Held! Pay ₹%d to confirm:\n%s",
		h.AmountPaise/100, link))
	return Result{Status: "sent_payment_link"}, nil
}

// parseDateToken takes the first whitespace-delimited token and validates it
// as an ISO date.
func parseDateToken(body string) (string, bool) {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return "", false
	}
	if _, err := time.Parse("2006-01-02", fields[0]); err != nil {
		return "", false
	}
	return fields[0], true
}
