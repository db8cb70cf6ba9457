package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/entiremind/backend/internal/platform/messagebroker"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	// SubjectOnboardingCompleted carries welcome-SMS jobs published by the
	// API service when a user finishes onboarding.
	SubjectOnboardingCompleted = "onboarding.completed"
	// WelcomeQueueGroup load-balances welcome jobs across worker instances.
	WelcomeQueueGroup = "welcome_senders"
)

// OnboardingCompletedEvent is the payload published on SubjectOnboardingCompleted.
type OnboardingCompletedEvent struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Phone  string    `json:"phone"`
}

// WelcomeText builds the fixed onboarding welcome message.
func WelcomeText(name string) string {
	if name == "" {
		name = "friend"
	}
	return fmt.Sprintf("Welcome to Entiremind, %s! You're enrolled in daily reflection prompts. "+
		"Up to 2 msgs/day. Msg & data rates may apply. "+
		"Reply HELP for help or STOP to cancel.", name)
}

// WelcomeConsumer consumes onboarding-completed jobs from NATS and sends the
// welcome SMS through the SendService.
type WelcomeConsumer struct {
	sender *SendService
	nats   messagebroker.NATSClient
	logger *slog.Logger
	sub    *nats.Subscription
}

func NewWelcomeConsumer(sender *SendService, natsClient messagebroker.NATSClient, logger *slog.Logger) *WelcomeConsumer {
	return &WelcomeConsumer{
		sender: sender,
		nats:   natsClient,
		logger: logger.With("service", "welcome_consumer"),
	}
}

// Start subscribes to the welcome job queue.
func (c *WelcomeConsumer) Start(ctx context.Context) error {
	if c.nats == nil {
		return errors.New("NATS client not initialized in WelcomeConsumer")
	}
	c.logger.Info("Starting welcome job consumer", "subject", SubjectOnboardingCompleted, "queue_group", WelcomeQueueGroup)

	handler := func(msg *nats.Msg) {
		var event OnboardingCompletedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			c.logger.Error("Failed to unmarshal onboarding completed event", "error", err, "data", string(msg.Data))
			return
		}
		if event.Phone == "" {
			c.logger.Warn("Onboarding completed event without phone number, skipping welcome SMS", "user_id", event.UserID)
			return
		}

		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		result := c.sender.Send(jobCtx, event.UserID, event.Phone, WelcomeText(event.Name))
		if !result.Success {
			// No retry: the failed send is already recorded as a message row
			// and a duplicate welcome text is worse than a missing one.
			c.logger.Error("Failed to send welcome SMS",
				"user_id", event.UserID, "error", result.ErrorDescription)
			return
		}
		c.logger.Info("Welcome SMS sent", "user_id", event.UserID, "message_id", result.MessageID)
	}

	sub, err := c.nats.Subscribe(ctx, SubjectOnboardingCompleted, WelcomeQueueGroup, handler)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %q: %w", SubjectOnboardingCompleted, err)
	}
	c.sub = sub
	return nil
}

// Stop unsubscribes from the welcome job queue.
func (c *WelcomeConsumer) Stop() {
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil {
			c.logger.Warn("Failed to unsubscribe welcome consumer", "error", err)
		}
		c.sub = nil
	}
}
