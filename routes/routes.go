package routes

import (
	"net/http"
	"time"

	"wellnessbot/config"
	"wellnessbot/handlers"
	"wellnessbot/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires every endpoint onto the router.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Hub-Signature-256", "X-Razorpay-Signature"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	RegisterHealthRoute(r)

	// Inbound WhatsApp messages.
	r.GET("/webhook", hb.Webhook.Verify)
	r.POST("/webhook",
		middleware.VerifyMetaSignature(config.AppConfig.WhatsAppAppSecret),
		hb.Webhook.Receive)

	// Encrypted flow data exchange.
	r.POST("/flow", hb.Flow.Exchange)

	// Razorpay payment notifications.
	r.POST("/payment/webhook", hb.PaymentWebhook.Receive)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Wellness bot is running"})
	})
}
