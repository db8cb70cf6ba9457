package app

import (
	"context"
	"log/slog"

	"github.com/entiremind/backend/internal/messaging/domain"
	"github.com/entiremind/backend/internal/messaging/provider"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// SendResult is the normalized outcome of an outbound send.
// Warning is set when the carrier accepted the message but local
// recordkeeping failed; the send still counts as a success.
type SendResult struct {
	Success           bool      `json:"success"`
	MessageID         uuid.UUID `json:"message_id,omitempty"`
	ExternalMessageID string    `json:"external_message_id,omitempty"`
	ErrorDescription  string    `json:"error,omitempty"`
	Warning           string    `json:"warning,omitempty"`
}

// SendService orchestrates outbound sends: pick the active carrier adapter,
// invoke it, and persist exactly one message row per call.
//
// The central rule here is that carrier truth takes precedence over local
// bookkeeping truth: a carrier rejection always fails the caller, while a
// local storage failure after the carrier accepted never does, because the
// carrier has already committed to delivery and a retry would produce a
// duplicate user-facing text.
type SendService struct {
	adapters map[domain.Provider]provider.Adapter
	active   domain.Provider
	messages domain.MessageRepository
	logger   *slog.Logger
}

// NewSendService builds a SendService. The active provider is an explicit
// configuration value decided at construction time, not read from ambient
// process state, so the core stays testable without environment mutation.
func NewSendService(
	adapters map[domain.Provider]provider.Adapter,
	active domain.Provider,
	messages domain.MessageRepository,
	logger *slog.Logger,
) *SendService {
	return &SendService{
		adapters: adapters,
		active:   active,
		messages: messages,
		logger:   logger.With("service", "send"),
	}
}

// activeAdapter returns the adapter for the configured provider,
// falling back to Twilio as the original deployment does.
func (s *SendService) activeAdapter() provider.Adapter {
	if a, ok := s.adapters[s.active]; ok {
		return a
	}
	return s.adapters[domain.ProviderTwilio]
}

// Send delivers one message to one recipient and records it.
// Exactly one message row is persisted per call: status=sent with the
// carrier's external ID on success, status=failed without one otherwise.
func (s *SendService) Send(ctx context.Context, userID uuid.UUID, toNumber, text string) SendResult {
	adapter := s.activeAdapter()
	if adapter == nil {
		s.logger.ErrorContext(ctx, "No SMS provider adapter configured", "active", s.active)
		return SendResult{Success: false, ErrorDescription: "no SMS provider configured"}
	}
	providerName := adapter.Name()
	fromNumber := adapter.PhoneNumber()

	timer := prometheus.NewTimer(outboundSendDurationHist.WithLabelValues(string(providerName)))
	result, err := adapter.Send(ctx, toNumber, text)
	timer.ObserveDuration()

	if err != nil {
		// Transport-level or unexpected failure. Persist a failed row on a
		// best-effort basis and return a generic result; the caller never
		// sees the raw error.
		s.logger.ErrorContext(ctx, "Unexpected error sending SMS",
			"error", err, "provider", providerName, "to", toNumber, "user_id", userID)
		outboundSendsCounter.WithLabelValues(string(providerName), "error").Inc()
		msgID := s.persistOutbound(ctx, userID, fromNumber, toNumber, text, providerName, domain.MessageStatusFailed, "")
		return SendResult{Success: false, MessageID: msgID, ErrorDescription: "unknown error sending SMS"}
	}

	if !result.Success {
		outboundSendsCounter.WithLabelValues(string(providerName), "failed").Inc()
		msgID := s.persistOutbound(ctx, userID, fromNumber, toNumber, text, providerName, domain.MessageStatusFailed, "")
		return SendResult{Success: false, MessageID: msgID, ErrorDescription: result.ErrorDescription}
	}

	outboundSendsCounter.WithLabelValues(string(providerName), "sent").Inc()
	msg := &domain.Message{
		UserID:     userID,
		Direction:  domain.DirectionOutbound,
		FromNumber: fromNumber,
		ToNumber:   toNumber,
		Text:       text,
		Provider:   providerName,
		Status:     domain.MessageStatusSent,
	}
	if result.ExternalMessageID != "" {
		extID := result.ExternalMessageID
		msg.ExternalMessageID = &extID
	}
	msgID, dbErr := s.messages.Create(ctx, msg)
	if dbErr != nil {
		// The message was delivered to the carrier; never roll back or retry.
		s.logger.ErrorContext(ctx, "Message sent but failed to store in database",
			"error", dbErr, "provider", providerName, "to", toNumber, "user_id", userID,
			"external_message_id", result.ExternalMessageID)
		return SendResult{
			Success:           true,
			ExternalMessageID: result.ExternalMessageID,
			Warning:           "message sent but failed to store in database",
		}
	}

	return SendResult{
		Success:           true,
		MessageID:         msgID,
		ExternalMessageID: result.ExternalMessageID,
	}
}

// persistOutbound inserts a failed outbound row; storage errors are logged
// and swallowed because the send outcome has already been decided.
func (s *SendService) persistOutbound(ctx context.Context, userID uuid.UUID, from, to, text string, providerName domain.Provider, status domain.MessageStatus, externalID string) uuid.UUID {
	msg := &domain.Message{
		UserID:     userID,
		Direction:  domain.DirectionOutbound,
		FromNumber: from,
		ToNumber:   to,
		Text:       text,
		Provider:   providerName,
		Status:     status,
	}
	if externalID != "" {
		msg.ExternalMessageID = &externalID
	}
	msgID, err := s.messages.Create(ctx, msg)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to store outbound message row",
			"error", err, "status", status, "to", to, "user_id", userID)
		return uuid.Nil
	}
	return msgID
}
