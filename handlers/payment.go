package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"wellnessbot/services/bot"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// razorpayEvent is the slice of the webhook payload the bot cares about.
type razorpayEvent struct {
	Event   string `json:"event"`
	Payload struct {
		PaymentLink struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Notes   struct {
					BookingID string `json:"booking_id"`
				} `json:"notes"`
				Customer struct {
					Contact string `json:"contact"`
				} `json:"customer"`
			} `json:"entity"`
		} `json:"payment_link"`
	} `json:"payload"`
}

// PaymentWebhookHandler receives Razorpay webhook notifications and drives
// payment reconciliation.
type PaymentWebhookHandler struct {
	Bot           *bot.Handler
	WebhookSecret string
	Logger        *zap.Logger
}

func NewPaymentWebhookHandler(b *bot.Handler, secret string, logger *zap.Logger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{Bot: b, WebhookSecret: secret, Logger: logger}
}

// Receive verifies the webhook signature, then reconciles paid payment
// links. Responses are 200 for anything past signature verification so the
// gateway does not retry events we have already logged.
func (h *PaymentWebhookHandler) Receive(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	if h.WebhookSecret != "" && !h.verifySignature(raw, c.GetHeader("X-Razorpay-Signature")) {
		h.Logger.Warn("payment webhook signature mismatch")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	var event razorpayEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		h.Logger.Warn("unparseable payment webhook", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if event.Event != "payment_link.paid" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	entity := event.Payload.PaymentLink.Entity
	bookingID := entity.Notes.BookingID
	orderID := entity.OrderID
	if orderID == "" {
		orderID = entity.ID
	}
	if bookingID == "" {
		h.Logger.Warn("payment_link.paid without booking_id note")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err := h.Bot.ReconcilePayment(c.Request.Context(), bookingID, orderID); err != nil {
		if errors.Is(err, bot.ErrNotFound) {
			h.Logger.Warn("payment for unknown booking", zap.String("booking", bookingID))
		} else {
			h.Logger.Error("payment reconciliation failed",
				zap.String("booking", bookingID), zap.Error(err))
		}
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *PaymentWebhookHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
