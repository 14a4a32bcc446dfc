package ledger

import (
	"context"
	"errors"

	"wellnessbot/models"
)

// ErrRecordNotFound is returned when a booking id does not exist in the ledger.
var ErrRecordNotFound = errors.New("record not found")

// Ledger is the narrow record-store contract the bot depends on. Counselor
// rows are read-only; booking rows are appended and updated by key.
type Ledger interface {
	// ListActiveCounselors returns counselors whose is_active flag is set.
	ListActiveCounselors(ctx context.Context) ([]models.Counselor, error)

	// ListPaidSlots returns the time slots already bound to a PAID booking
	// for the given counselor and date.
	ListPaidSlots(ctx context.Context, date, counselorID string) ([]string, error)

	// CreateBookingHold appends a new booking row.
	CreateBookingHold(ctx context.Context, b models.Booking) error

	// FindBookingByID returns the booking with the given id, or
	// ErrRecordNotFound.
	FindBookingByID(ctx context.Context, bookingID string) (*models.Booking, error)

	// UpdatePaymentStatus sets payment_status and, when orderID is
	// non-empty, backfills razorpay_order_id.
	UpdatePaymentStatus(ctx context.Context, bookingID, status, orderID string) error

	// UpdateDateTime mutates an existing booking's date and time slot in
	// place (rescheduling keeps the booking id).
	UpdateDateTime(ctx context.Context, bookingID, date, timeSlot string) error

	// Cancel marks a booking CANCELLED. Cancelling an already-cancelled
	// booking is a no-op success.
	Cancel(ctx context.Context, bookingID string) error

	// CountPaidBookings counts the user's lifetime PAID bookings.
	CountPaidBookings(ctx context.Context, userPhone string) (int, error)

	// ListActiveBookings returns the user's PAID bookings that are still
	// ACTIVE (an empty booking_status counts as ACTIVE).
	ListActiveBookings(ctx context.Context, userPhone string) ([]models.Booking, error)
}
