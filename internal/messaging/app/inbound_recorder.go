package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/entiremind/backend/internal/messaging/domain"
	"github.com/entiremind/backend/internal/platform/messagebroker"
	"github.com/google/uuid"
)

// SubjectInboundReceived is published after an inbound message is stored, so
// downstream consumers (exports, notifications) can react without being in
// the webhook request path.
const SubjectInboundReceived = "sms.inbound.received"

// InboundReceivedEvent is the payload published on SubjectInboundReceived.
type InboundReceivedEvent struct {
	MessageID         uuid.UUID       `json:"message_id"`
	UserID            uuid.UUID       `json:"user_id"`
	FromNumber        string          `json:"from_number"`
	ToNumber          string          `json:"to_number"`
	Text              string          `json:"text"`
	ExternalMessageID string          `json:"external_message_id"`
	Provider          domain.Provider `json:"provider"`
}

// InboundRecorder resolves the sender of an inbound message to a known user
// and persists the message. Both carrier webhook handlers funnel into it.
type InboundRecorder struct {
	messages domain.MessageRepository
	users    domain.UserDirectory
	nats     messagebroker.NATSClient
	logger   *slog.Logger
}

// NewInboundRecorder creates an InboundRecorder. The NATS client may be nil;
// event publishing is best-effort either way.
func NewInboundRecorder(
	messages domain.MessageRepository,
	users domain.UserDirectory,
	nats messagebroker.NATSClient,
	logger *slog.Logger,
) *InboundRecorder {
	return &InboundRecorder{
		messages: messages,
		users:    users,
		nats:     nats,
		logger:   logger.With("service", "inbound_recorder"),
	}
}

// Record looks up the owning user by origin number and stores the message.
// An unrecognized sender returns domain.ErrUnknownSender and stores nothing:
// far more likely a wrong number or spam than a bug, and the webhook handler
// still acks the carrier to avoid retry amplification.
func (r *InboundRecorder) Record(ctx context.Context, fromNumber, toNumber, body, externalMessageID string, providerName domain.Provider) (uuid.UUID, error) {
	userID, err := r.users.FindUserIDByPhone(ctx, fromNumber)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownSender) {
			inboundRecordedCounter.WithLabelValues(string(providerName), "unknown_sender").Inc()
			r.logger.WarnContext(ctx, "Inbound message from unknown sender dropped",
				"from", fromNumber, "provider", providerName, "external_message_id", externalMessageID)
			return uuid.Nil, fmt.Errorf("user not found for phone number %s: %w", fromNumber, domain.ErrUnknownSender)
		}
		inboundRecordedCounter.WithLabelValues(string(providerName), "error").Inc()
		return uuid.Nil, fmt.Errorf("failed to look up user by phone number: %w", err)
	}

	msg := &domain.Message{
		UserID:     userID,
		Direction:  domain.DirectionInbound,
		FromNumber: fromNumber,
		ToNumber:   toNumber,
		Text:       body,
		Provider:   providerName,
		Status:     domain.MessageStatusReceived,
	}
	if externalMessageID != "" {
		extID := externalMessageID
		msg.ExternalMessageID = &extID
	}

	msgID, err := r.messages.Create(ctx, msg)
	if err != nil {
		inboundRecordedCounter.WithLabelValues(string(providerName), "error").Inc()
		return uuid.Nil, fmt.Errorf("failed to store inbound message: %w", err)
	}
	inboundRecordedCounter.WithLabelValues(string(providerName), "stored").Inc()

	r.publishReceived(ctx, InboundReceivedEvent{
		MessageID:         msgID,
		UserID:            userID,
		FromNumber:        fromNumber,
		ToNumber:          toNumber,
		Text:              body,
		ExternalMessageID: externalMessageID,
		Provider:          providerName,
	})

	return msgID, nil
}

// publishReceived emits the stored-message event. Failures are logged and
// never fail the webhook: the row is already committed.
func (r *InboundRecorder) publishReceived(ctx context.Context, event InboundReceivedEvent) {
	if r.nats == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to marshal inbound received event", "error", err, "message_id", event.MessageID)
		return
	}
	if err := r.nats.Publish(ctx, SubjectInboundReceived, data); err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish inbound received event",
			"error", err, "subject", SubjectInboundReceived, "message_id", event.MessageID)
	}
}
