package bot

import (
	"context"
	"strings"

	"wellnessbot/models"

	"go.uber.org/zap"
)

// resetCommands trigger a global reset from any state, taking priority over
// state-specific handling.
var resetCommands = map[string]bool{
	"hi":    true,
	"hello": true,
	"start": true,
	"reset": true,
	"menu":  true,
}

// Handle is the orchestrator's sole entry point: one inbound message in,
// zero or more outbound sends, a status out. Validation failures prompt the
// user and leave the session state unchanged.
func (h *Handler) Handle(ctx context.Context, userPhone, messageBody string) (Result, error) {
	session, err := h.Sessions.Get(ctx, userPhone)
	if err != nil {
		h.Logger.Error("failed to load session", zap.String("phone", userPhone), zap.Error(err))
		return Result{Status: "error"}, err
	}
	if session == nil {
		session = models.NewSession()
		if err := h.Sessions.Put(ctx, userPhone, session); err != nil {
			return Result{Status: "error"}, err
		}
	}

	if resetCommands[strings.ToLower(strings.TrimSpace(messageBody))] {
		if err := h.Sessions.Put(ctx, userPhone, models.NewSession()); err != nil {
			return Result{Status: "error"}, err
		}
		return h.sendWelcomeMenu(ctx, userPhone)
	}

	switch session.State {
	case models.StateStart:
		return h.handleStart(ctx, userPhone, messageBody, session)
	case models.StateSelectCounselor:
		return h.handleSelectCounselor(ctx, userPhone, messageBody, session)
	case models.StateSelectDate:
		return h.handleSelectDate(ctx, userPhone, messageBody, session)
	case models.StateSelectSlot:
		return h.handleSelectSlot(ctx, userPhone, messageBody, session)
	case models.StatePaymentPending:
		return h.handlePaymentPending(ctx, userPhone)
	case models.StateRescheduleSelect:
		return h.handleRescheduleSelect(ctx, userPhone, messageBody, session)
	case models.StateRescheduleDate:
		return h.handleRescheduleDate(ctx, userPhone, messageBody, session)
	case models.StateRescheduleSlot:
		return h.handleRescheduleSlot(ctx, userPhone, messageBody, session)
	}

	// Unknown persisted state should not happen; recover via reset.
	h.Logger.Warn("unknown session state, resetting",
		zap.String("phone", userPhone), zap.String("state", string(session.State)))
	if err := h.Sessions.Put(ctx, userPhone, models.NewSession()); err != nil {
		return Result{Status: "error"}, err
	}
	h.sendText(ctx, userPhone, "I didn't understand that. Type 'Hi' to start over.")
	return Result{Status: "reset_unknown_state"}, nil
}

func (h *Handler) handleStart(ctx context.Context, phone, body string, session *models.Session) (Result, error) {
	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "book") || lower == "book_btn":
		return h.startBookingFlow(ctx, phone, session)
	case strings.Contains(lower, "talk") || lower == "talk_btn":
		h.sendText(ctx, phone, "You can reach the Wellness Center team directly at +91 80000 00000 or care@wellnesscenter.example. We're available 9am-6pm, Monday to Saturday.")
		return Result{Status: "sent_contact_info"}, nil
	case strings.Contains(lower, "reschedule") || lower == "reschedule_btn":
		return h.startRescheduleFlow(ctx, phone, session)
	}
	// Ignore non-commands in START to avoid spam loops.
	return Result{Status: "ignored_no_command"}, nil
}

func (h *Handler) handlePaymentPending(ctx context.Context, phone string) (Result, error) {
	h.sendText(ctx, phone, "Your payment is still pending. Complete it to confirm your slot, or type 'Hi' to start over.")
	return Result{Status: "payment_pending"}, nil
}

func (h *Handler) sendWelcomeMenu(ctx context.Context, phone string) (Result, error) {
	buttons := []models.Button{
		{ID: "book_btn", Title: "Book Session"},
		{ID: "talk_btn", Title: "Talk to Us"},
		{ID: "reschedule_btn", Title: "Reschedule"},
	}
	if err := h.Messenger.SendButtonMenu(ctx, phone,
		"Welcome to the Wellness Center!\nHow can we help you today?", buttons); err != nil {
		h.Logger.Error("failed to send welcome menu", zap.String("phone", phone), zap.Error(err))
	}
	return Result{Status: "sent_welcome"}, nil
}

// sendText logs and swallows send failures; outbound messaging is
// best-effort and never changes the session outcome.
func (h *Handler) sendText(ctx context.Context, phone, text string) {
	if err := h.Messenger.SendText(ctx, phone, text); err != nil {
		h.Logger.Error("failed to send text", zap.String("phone", phone), zap.Error(err))
	}
}

// truncate shortens s to at most n runes, the Cloud API limit for list row
// titles and descriptions.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
