// Package whatsapp sends outbound messages through the Meta Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"wellnessbot/models"

	"go.uber.org/zap"
)

const apiVersion = "v17.0"

// Client posts messages to the Cloud API /messages endpoint. Sends are
// best-effort: callers log failures and continue.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	disabled   bool
}

// NewClient builds a messaging client. With missing credentials the client
// is disabled and drops sends with a warning, which keeps local development
// working without a WhatsApp app.
func NewClient(token, phoneNumberID string, logger *zap.Logger) *Client {
	c := &Client{
		token:      token,
		baseURL:    fmt.Sprintf("https://graph.facebook.com/%s/%s/messages", apiVersion, phoneNumberID),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
	if token == "" || phoneNumberID == "" {
		c.disabled = true
		logger.Warn("WhatsApp credentials missing; outbound messages will be dropped")
	}
	return c
}

func (c *Client) send(ctx context.Context, to string, message map[string]any) error {
	if c.disabled {
		c.logger.Info("WhatsApp disabled, dropping message", zap.String("to", to))
		return nil
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
	}
	for k, v := range message {
		payload[k] = v
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send WhatsApp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("WhatsApp API error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return fmt.Errorf("whatsapp api returned status %d", resp.StatusCode)
	}
	return nil
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	return c.send(ctx, to, map[string]any{
		"type": "text",
		"text": map[string]any{"body": text},
	})
}

// SendImage sends an image by URL with a caption.
func (c *Client) SendImage(ctx context.Context, to, imageURL, caption string) error {
	return c.send(ctx, to, map[string]any{
		"type": "image",
		"image": map[string]any{
			"link":    imageURL,
			"caption": caption,
		},
	})
}

// SendButtonMenu sends an interactive reply-button message. The Cloud API
// allows at most 3 buttons; extras are dropped.
func (c *Client) SendButtonMenu(ctx context.Context, to, bodyText string, buttons []models.Button) error {
	if len(buttons) > 3 {
		buttons = buttons[:3]
	}
	formatted := make([]map[string]any, 0, len(buttons))
	for _, btn := range buttons {
		formatted = append(formatted, map[string]any{
			"type": "reply",
			"reply": map[string]any{
				"id":    btn.ID,
				"title": btn.Title,
			},
		})
	}
	return c.send(ctx, to, map[string]any{
		"type": "interactive",
		"interactive": map[string]any{
			"type":   "button",
			"body":   map[string]any{"text": bodyText},
			"action": map[string]any{"buttons": formatted},
		},
	})
}

// SendSelectionList sends an interactive list message.
func (c *Client) SendSelectionList(ctx context.Context, to, bodyText, buttonText string, sections []models.ListSection) error {
	return c.send(ctx, to, map[string]any{
		"type": "interactive",
		"interactive": map[string]any{
			"type":   "list",
			"body":   map[string]any{"text": bodyText},
			"action": map[string]any{
				"button":   buttonText,
				"sections": sections,
			},
		},
	})
}
