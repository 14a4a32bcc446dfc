package main

import (
	"context"
	"crypto/rsa"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wellnessbot/config"
	"wellnessbot/database/ledger"
	"wellnessbot/handlers"
	"wellnessbot/middleware"
	"wellnessbot/routes"
	"wellnessbot/services/bot"
	"wellnessbot/services/flowcrypto"
	"wellnessbot/services/payment"
	"wellnessbot/services/whatsapp"
	"wellnessbot/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	// Ledger backend.
	ctx := context.Background()
	var store ledger.Ledger
	var err error
	switch config.AppConfig.LedgerBackend {
	case "mongo":
		store, err = ledger.NewMongoLedger(ctx, config.AppConfig.DatabaseURL, config.AppConfig.DatabaseName)
	default:
		store, err = ledger.NewSheetsLedger(ctx, config.AppConfig.SheetsCredentialsFile, config.AppConfig.SheetsSpreadsheetID)
	}
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize ledger (%s): %v", config.AppConfig.LedgerBackend, err)
	}

	// Session store.
	ttl := time.Duration(config.AppConfig.SessionTTLMinutes) * time.Minute
	var sessions bot.SessionStore
	if config.AppConfig.SessionBackend == "redis" {
		sessions = bot.NewRedisStore(utils.GetSessionCacheClient(), ttl)
	} else {
		sessions = bot.NewMemoryStore(ttl, nil)
	}

	messenger := whatsapp.NewClient(
		config.AppConfig.WhatsAppAccessToken,
		config.AppConfig.WhatsAppPhoneNumberID,
		logger,
	)
	payments := payment.NewRazorpayClient(
		config.AppConfig.RazorpayKeyID,
		config.AppConfig.RazorpayKeySecret,
		logger,
	)

	botHandler := bot.NewHandler(store, messenger, payments, sessions, logger)
	botHandler.AmountPaise = config.AppConfig.BookingAmountPaise
	botHandler.MaxPaidBookings = config.AppConfig.MaxPaidBookings

	var flowKey *rsa.PrivateKey
	if config.AppConfig.FlowPrivateKey != "" {
		flowKey, err = flowcrypto.ParsePrivateKey(config.AppConfig.FlowPrivateKey)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to parse flow private key: %v", err)
		}
	} else {
		logger.Warn("FLOW_PRIVATE_KEY not set; the /flow endpoint will reject all requests")
	}
	dispatcher := &flowcrypto.Dispatcher{Ledger: store, Logger: logger}

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	handlerBundle := &handlers.HandlerBundle{
		Webhook:        handlers.NewWebhookHandler(botHandler, config.AppConfig.WhatsAppVerifyToken, logger),
		Flow:           handlers.NewFlowHandler(flowKey, dispatcher, logger),
		PaymentWebhook: handlers.NewPaymentWebhookHandler(botHandler, config.AppConfig.RazorpayWebhookSecret, logger),
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
