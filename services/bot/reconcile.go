package bot

import (
	"context"
	"errors"
	"fmt"

	"wellnessbot/database/ledger"
	"wellnessbot/models"

	"go.uber.org/zap"
)

// ReconcilePayment marks a booking PAID after a gateway notification. The
// lookup is by booking id (the hold is written with an empty order id), and
// the gateway order id is backfilled here. Safe to invoke repeatedly for the
// same booking: a booking already PAID is left untouched.
func (h *Handler) ReconcilePayment(ctx context.Context, bookingID, orderID string) error {
	booking, err := h.Ledger.FindBookingByID(ctx, bookingID)
	if errors.Is(err, ledger.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up booking %s: %w", bookingID, err)
	}

	if booking.PaymentStatus == models.PaymentPaid {
		h.Logger.Info("payment already reconciled", zap.String("booking", bookingID))
		return nil
	}

	if err := h.Ledger.UpdatePaymentStatus(ctx, bookingID, models.PaymentPaid, orderID); err != nil {
		return fmt.Errorf("failed to mark booking %s paid: %w", bookingID, err)
	}

	// Best-effort confirmation; the payment state change above stands
	// regardless of whether the message goes out.
	h.sendText(ctx, booking.UserPhone, fmt.Sprintf(
		"Payment received! Your session on %s at %s is confirmed.\nBooking ID: %s",
		booking.Date, booking.TimeSlot, bookingID))

	if err := h.Sessions.Reset(ctx, booking.UserPhone); err != nil {
		h.Logger.Warn("failed to reset session after payment", zap.String("phone", booking.UserPhone), zap.Error(err))
	}
	return nil
}
