package bot

import (
	"context"
	"time"

	"wellnessbot/database/ledger"
	"wellnessbot/models"

	"go.uber.org/zap"
)

// Messenger is the outbound messaging contract the bot depends on. Sends
// are fire-and-forget: failures are logged and never roll back state.
type Messenger interface {
	SendText(ctx context.Context, to, text string) error
	SendImage(ctx context.Context, to, imageURL, caption string) error
	SendButtonMenu(ctx context.Context, to, bodyText string, buttons []models.Button) error
	SendSelectionList(ctx context.Context, to, bodyText, buttonText string, sections []models.ListSection) error
}

// PaymentLinker issues hosted payment links keyed by a reference id.
type PaymentLinker interface {
	CreatePaymentLink(ctx context.Context, amountPaise int64, description, customerPhone, referenceID string) (string, error)
}

// Result reports what the bot did with an inbound message.
type Result struct {
	Status string `json:"status"`
}

// Handler is the booking orchestrator: a per-user conversational state
// machine that drives booking and reschedule lifecycles.
type Handler struct {
	Ledger    ledger.Ledger
	Messenger Messenger
	Payments  PaymentLinker
	Sessions  SessionStore
	Logger    *zap.Logger

	// Clock is injectable for tests; defaults to time.Now.
	Clock func() time.Time

	AmountPaise     int64
	MaxPaidBookings int

	slotLocks keyedMutex
}

// NewHandler wires a Handler with default policy values.
func NewHandler(l ledger.Ledger, m Messenger, p PaymentLinker, s SessionStore, logger *zap.Logger) *Handler {
	return &Handler{
		Ledger:          l,
		Messenger:       m,
		Payments:        p,
		Sessions:        s,
		Logger:          logger,
		Clock:           time.Now,
		AmountPaise:     50000,
		MaxPaidBookings: 5,
	}
}
