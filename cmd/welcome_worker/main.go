package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/entiremind/backend/internal/messaging/app"
	"github.com/entiremind/backend/internal/messaging/provider"
	messagingrepo "github.com/entiremind/backend/internal/messaging/repository/postgres"
	"github.com/entiremind/backend/internal/platform/config"
	"github.com/entiremind/backend/internal/platform/database"
	"github.com/entiremind/backend/internal/platform/logger"
	"github.com/entiremind/backend/internal/platform/messagebroker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Welcome worker starting...", "environment", cfg.Environment)

	dbPool, err := database.NewDBPool(context.Background(), cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Successfully connected to PostgreSQL database")

	natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, "entiremind-welcome-worker", appLogger)
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

	messageRepo := messagingrepo.NewPgMessageRepository(dbPool, appLogger)
	sendService := app.NewSendService(adapters, provider.ActiveProvider(cfg), messageRepo, appLogger)
	consumer := app.NewWelcomeConsumer(sendService, natsClient, appLogger)

	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	if err := consumer.Start(appCtx); err != nil {
		appLogger.Error("Failed to start welcome job consumer", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Welcome job consumer started", "subject", app.SubjectOnboardingCompleted, "queue_group", app.WelcomeQueueGroup)

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quitChan
	appLogger.Info("Shutdown signal received", "signal", receivedSignal.String())

	cancelAppCtx()
	consumer.Stop()
	appLogger.Info("Welcome worker shut down successfully.")
}
