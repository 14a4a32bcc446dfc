package handlers

import (
	"net/http"

	"wellnessbot/models"
	"wellnessbot/services/bot"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookHandler receives Meta Cloud API webhook calls: the GET verification
// handshake and POSTed inbound messages.
type WebhookHandler struct {
	Bot         *bot.Handler
	VerifyToken string
	Logger      *zap.Logger
}

func NewWebhookHandler(b *bot.Handler, verifyToken string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{Bot: b, VerifyToken: verifyToken, Logger: logger}
}

// Verify answers the subscription handshake by echoing hub.challenge.
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "" && token == "" {
		c.String(http.StatusOK, "Hello World")
		return
	}
	if mode == "subscribe" && token == h.VerifyToken {
		h.Logger.Info("webhook verified")
		c.String(http.StatusOK, challenge)
		return
	}
	c.String(http.StatusForbidden, "Forbidden")
}

// Receive parses the webhook envelope and hands each message to the bot.
// The response is always 200: Meta re-delivers on anything else, and a
// failed message is retried by the user re-sending it.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var envelope models.WebhookEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		h.Logger.Warn("unparseable webhook payload", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "success"})
		return
	}

	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				body := msg.Body()
				result, err := h.Bot.Handle(c.Request.Context(), msg.From, body)
				if err != nil {
					h.Logger.Error("error processing message",
						zap.String("from", msg.From), zap.Error(err))
					continue
				}
				h.Logger.Info("message handled",
					zap.String("from", msg.From),
					zap.String("status", result.Status))
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
