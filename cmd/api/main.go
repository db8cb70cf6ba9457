package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accountrepo "github.com/entiremind/backend/internal/account/repository/postgres"
	accounthttp "github.com/entiremind/backend/internal/account/transport/http"
	"github.com/entiremind/backend/internal/api/middleware"
	"github.com/entiremind/backend/internal/audit"
	"github.com/entiremind/backend/internal/leads"
	"github.com/entiremind/backend/internal/messaging/app"
	"github.com/entiremind/backend/internal/messaging/provider"
	messagingrepo "github.com/entiremind/backend/internal/messaging/repository/postgres"
	messaginghttp "github.com/entiremind/backend/internal/messaging/transport/http"
	"github.com/entiremind/backend/internal/platform/config"
	"github.com/entiremind/backend/internal/platform/database"
	"github.com/entiremind/backend/internal/platform/logger"
	"github.com/entiremind/backend/internal/platform/messagebroker"
)

const serviceName = "api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("API service starting...", "port", cfg.ServerPort, "environment", cfg.Environment)

	dbPool, err := database.NewDBPool(context.Background(), cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Successfully connected to PostgreSQL database")

	natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, "entiremind-api", appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	appLogger.Info("Successfully connected to NATS")

	adapters, err := provider.NewAdaptersFromConfig(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to configure SMS providers", "error", err)
		os.Exit(1)
	}
	activeProvider := provider.ActiveProvider(cfg)
	appLogger.Info("SMS providers configured", "active", activeProvider)

	messageRepo := messagingrepo.NewPgMessageRepository(dbPool, appLogger)
	userRepo := accountrepo.NewPgUserRepository(dbPool, appLogger)
	leadRepo := leads.NewPgRepository(dbPool, appLogger)
	auditor := audit.NewRecorder(dbPool, appLogger)

	sendService := app.NewSendService(adapters, activeProvider, messageRepo, appLogger)
	recorder := app.NewInboundRecorder(messageRepo, userRepo, natsClient, appLogger)

	validate := validator.New()

	telnyxHandler := messaginghttp.NewTelnyxWebhookHandler(recorder, appLogger)
	twilioHandler := messaginghttp.NewTwilioWebhookHandler(recorder, cfg.TwilioAuthToken, cfg.IsProduction(), appLogger)
	messageHandler := messaginghttp.NewMessageHandler(sendService, messageRepo, userRepo, auditor, validate, appLogger)
	onboardingHandler := accounthttp.NewOnboardingHandler(userRepo, natsClient, validate, appLogger)
	leadsHandler := leads.NewHandler(leadRepo, appLogger)

	authMW := middleware.Auth(cfg.AuthJWTSecret, appLogger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.PrometheusMetrics)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		// Carrier webhooks: authenticated by payload signature (Twilio, in
		// production) rather than user JWT.
		api.Route("/sms/webhook", func(wh chi.Router) {
			wh.Post("/telnyx", telnyxHandler.HandleWebhook)
			wh.Get("/telnyx", telnyxHandler.HandleVerification)
			wh.Post("/twilio", twilioHandler.HandleWebhook)
			wh.Get("/twilio", twilioHandler.HandleVerification)
		})

		leadsHandler.RegisterRoutes(api)

		api.Group(func(authed chi.Router) {
			authed.Use(authMW)
			messageHandler.RegisterRoutes(authed)
			onboardingHandler.RegisterRoutes(authed)
		})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quitChan
	appLogger.Info("Shutdown signal received", "signal", receivedSignal.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", "error", err)
	}
	appLogger.Info("API service shut down successfully.")
}
