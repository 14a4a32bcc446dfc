// Package payment issues hosted Razorpay payment links for booking holds.
package payment

import (
	"context"
	"fmt"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"go.uber.org/zap"
)

const linkExpiry = 15 * time.Minute

// RazorpayClient wraps the Razorpay SDK's payment-link API.
type RazorpayClient struct {
	client *razorpay.Client
	logger *zap.Logger
}

// NewRazorpayClient builds a payment client. Without credentials the client
// returns mock links so the rest of the flow stays exercisable in demos.
func NewRazorpayClient(keyID, keySecret string, logger *zap.Logger) *RazorpayClient {
	c := &RazorpayClient{logger: logger}
	if keyID != "" && keySecret != "" {
		c.client = razorpay.NewClient(keyID, keySecret)
	} else {
		logger.Warn("Razorpay credentials missing; payment links will be mocked")
	}
	return c
}

// CreatePaymentLink creates a 15-minute payment link carrying the booking id
// in notes.booking_id so the paid webhook can be correlated back.
func (c *RazorpayClient) CreatePaymentLink(ctx context.Context, amountPaise int64, description, customerPhone, referenceID string) (string, error) {
	if c.client == nil {
		return fmt.Sprintf("https://mock-payment-link.com/%s", referenceID), nil
	}

	payload := map[string]interface{}{
		"amount":         amountPaise,
		"currency":       "INR",
		"accept_partial": false,
		"description":    description,
		"expire_by":      time.Now().Add(linkExpiry).Unix(),
		"customer": map[string]interface{}{
			"contact": customerPhone,
		},
		"notify": map[string]interface{}{
			"sms":   true,
			"email": false,
		},
		"reminder_enable": true,
		"notes": map[string]interface{}{
			"booking_id": referenceID,
		},
	}

	link, err := c.client.PaymentLink.Create(payload, nil)
	if err != nil {
		c.logger.Error("Razorpay payment link creation failed", zap.Error(err))
		return "", fmt.Errorf("failed to create payment link: %w", err)
	}
	shortURL, ok := link["short_url"].(string)
	if !ok || shortURL == "" {
		return "", fmt.Errorf("payment link response missing short_url")
	}
	return shortURL, nil
}
