package models

import "time"

// Payment status values for a booking.
const (
	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
)

// Booking status values. An empty booking_status on older records is
// treated as ACTIVE.
const (
	BookingActive    = "ACTIVE"
	BookingCancelled = "CANCELLED"
)

// Booking represents an appointment record in the ledger.
type Booking struct {
	BookingID       string    `bson:"booking_id" json:"booking_id"`             // Assigned once at creation, never reused
	UserPhone       string    `bson:"user_phone" json:"user_phone"`             // Owner of the booking
	CounselorID     string    `bson:"counselor_id" json:"counselor_id"`         // Counselor being booked
	Date            string    `bson:"date" json:"date"`                         // "YYYY-MM-DD"
	TimeSlot        string    `bson:"time_slot" json:"time_slot"`               // One of the fixed slot vocabulary
	PaymentStatus   string    `bson:"payment_status" json:"payment_status"`     // PENDING or PAID
	RazorpayOrderID string    `bson:"razorpay_order_id" json:"razorpay_order_id"` // Backfilled after payment
	Timestamp       time.Time `bson:"timestamp" json:"timestamp"`               // Creation time
	BookingStatus   string    `bson:"booking_status" json:"booking_status"`     // ACTIVE or CANCELLED
}

// IsActive reports whether the booking is still active, treating a missing
// booking_status as ACTIVE for backward compatibility with older rows.
func (b Booking) IsActive() bool {
	return b.BookingStatus == BookingActive || b.BookingStatus == ""
}
