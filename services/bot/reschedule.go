package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wellnessbot/database/ledger"
	"wellnessbot/models"

	"go.uber.org/zap"
)

// startRescheduleFlow lists the caller's active PAID bookings for selection.
func (h *Handler) startRescheduleFlow(ctx context.Context, phone string, session *models.Session) (Result, error) {
	bookings, err := h.Ledger.ListActiveBookings(ctx, phone)
	if err != nil {
		h.Logger.Error("failed to list active bookings", zap.String("phone", phone), zap.Error(err))
		h.sendText(ctx, phone, "Something went wrong. Please try again in a moment.")
		return Result{Status: "error"}, err
	}
	if len(bookings) == 0 {
		h.sendText(ctx, phone, "You have no active bookings to reschedule. Type 'Book' to make one.")
		return Result{Status: "no_active_bookings"}, nil
	}

	rows := make([]models.ListRow, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, models.ListRow{
			ID:          b.BookingID,
			Title:       truncate(b.Date+" at "+b.TimeSlot, 24),
			Description: truncate("Booking "+b.BookingID, 72),
		})
	}
	sections := []models.ListSection{{Title: "Your Bookings", Rows: rows}}
	if err := h.Messenger.SendSelectionList(ctx, phone,
		"Which booking would you like to reschedule?", "View Bookings", sections); err != nil {
		h.Logger.Error("failed to send bookings list", zap.Error(err))
	}

	session.State = models.StateRescheduleSelect
	if err := h.Sessions.Put(ctx, phone, session); err != nil {
		return Result{Status: "error"}, err
	}
	return Result{Status: "sent_reschedule_list"}, nil
}

func (h *Handler) handleRescheduleSelect(ctx context.Context, phone, body string, session *models.Session) (Result, error) {
	bookingID := strings.TrimSpace(body)

	// Ownership check: the id must be one of the caller's own active
	// bookings, otherwise nothing is stored or mutated.
	bookings, err := h.Ledger.ListActiveBookings(ctx, phone)
	if err != nil {
		h.Logger.Error("failed to list active bookings", zap.String("phone", phone), zap.Error(err))
		h.sendText(ctx, phone, "Something went wrong. Please try again in a moment.")
		return Result{Status: "error"}, err
	}
	owned := false
	for _, b := range bookings {
		if b.BookingID == bookingID {
			owned = true
			break
		}
	}
	if !owned {
		h.sendText(ctx, phone, "Invalid booking. Please select one of your active bookings.")
		return Result{Status: "invalid_booking"}, nil
	}

	session.Data.RescheduleBookingID = bookingID
	session.State = models.StateRescheduleDate
	if err := h.Sessions.Put(ctx, phone, session); err != nil {
		return Result{Status: "error"}, err
	}
	return h.sendDateSelection(ctx, phone, "Please select a new date for your appointment:")
}

func (h *Handler) handleRescheduleDate(ctx context.Context, phone, body string, session *models.Session) (Result, error) {
	date, ok := parseDateToken(body)
	if !ok {
		h.sendText(ctx, phone, "Please select a valid date (e.g. 2024-10-10 or tap one of the buttons).")
		return Result{Status: "invalid_date"}, nil
	}

	booking, err := h.Ledger.FindBookingByID(ctx, session.Data.RescheduleBookingID)
	if errors.Is(err, ledger.ErrRecordNotFound) {
		if err := h.Sessions.Put(ctx, phone, models.NewSession()); err != nil {
			return Result{Status: "error"}, err
		}
		h.sendText(ctx, phone, "That booking no longer exists. Type 'Hi' to start over.")
		return Result{Status: "invalid_booking"}, nil
	}
	if err != nil {
		h.Logger.Error("failed to look up booking", zap.Error(err))
		h.sendText(ctx, phone, "Something went wrong. Please try again in a moment.")
		return Result{Status: "error"}, err
	}

	session.Data.NewDate = date
	available, err := h.availableSlots(ctx, date, booking.CounselorID)
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

	session.State = models.StateRescheduleSlot
	if err := h.Sessions.Put(ctx, phone, session); err != nil {
		return Result{Status: "error"}, err
	}
	h.sendSlotList(ctx, phone, date, available)
	return Result{Status: "sent_slots_list"}, nil
}

func (h *Handler) handleRescheduleSlot(ctx context.Context, phone, body string, session *models.Session) (Result, error) {
	slot := strings.TrimSpace(body)
	if slot == "" {
		h.sendText(ctx, phone, "Please type a time slot.")
		return Result{Status: "invalid_slot"}, nil
	}

	bookingID := session.Data.RescheduleBookingID
	newDate := session.Data.NewDate
	if err := h.Ledger.UpdateDateTime(ctx, bookingID, newDate, slot); err != nil {
		h.Logger.Error("failed to reschedule booking", zap.String("booking", bookingID), zap.Error(err))
		h.sendText(ctx, phone, "We couldn't reschedule that booking. Type 'Hi' to start over.")
		return Result{Status: "error"}, err
	}

	// Reschedule reuses the paid booking; no new payment is requested.
	if err := h.Sessions.Put(ctx, phone, models.NewSession()); err != nil {
		return Result{Status: "error"}, err
	}
	h.sendText(ctx, phone, fmt.Sprintf("Done! Booking %s has been moved to %s at %s.", bookingID, newDate, slot))
	return Result{Status: "rescheduled"}, nil
}

// CancelBooking marks one of the caller's bookings CANCELLED. Cancelling an
// already-cancelled booking is a no-op success.
func (h *Handler) CancelBooking(ctx context.Context, phone, bookingID string) error {
	booking, err := h.Ledger.FindBookingByID(ctx, bookingID)
	if errors.Is(err, ledger.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up booking: %w", err)
	}
	if booking.UserPhone != phone {
		return ErrNotFound
	}
	if booking.BookingStatus == models.BookingCancelled {
		return nil
	}
	if err := h.Ledger.Cancel(ctx, bookingID); err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	h.sendText(ctx, phone, fmt.Sprintf("Booking %s has been cancelled.", bookingID))
	return nil
}
