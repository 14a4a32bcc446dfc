package handlers

// HandlerBundle groups everything the route registration needs.
type HandlerBundle struct {
	Webhook        *WebhookHandler
	Flow           *FlowHandler
	PaymentWebhook *PaymentWebhookHandler
}
