package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Provider identifies the external SMS carrier a message went through.
type Provider string

const (
	ProviderTelnyx Provider = "telnyx"
	ProviderTwilio Provider = "twilio"
)

// Direction of a message relative to this system.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// MessageStatus is the lifecycle state of a message row.
// Rows are append-only: no code path updates a status after insert.
// Delivery-status webhooks are acknowledged but intentionally not applied.
type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusFailed    MessageStatus = "failed"
	MessageStatusReceived  MessageStatus = "received"
)

// ErrUnknownSender is returned when an inbound message's origin number does
// not resolve to a known user. The message is not persisted in that case.
var ErrUnknownSender = errors.New("no user found for phone number")

// Message is the single persisted messaging entity, covering both directions.
// ExternalMessageID is the carrier's own identifier; it stays nil for sends
// that failed before the carrier acknowledged them.
type Message struct {
	ID                uuid.UUID     `json:"id"`
	UserID            uuid.UUID     `json:"user_id"`
	Direction         Direction     `json:"direction"`
	FromNumber        string        `json:"from_number"`
	ToNumber          string        `json:"to_number"`
	Text              string        `json:"text"`
	ExternalMessageID *string       `json:"external_message_id,omitempty"`
	Provider          Provider      `json:"provider"`
	Status            MessageStatus `json:"status"`
	CreatedAt         time.Time     `json:"created_at"`
}

// MessageRepository is the persistence contract for message rows.
// Inserts are single-row and atomic; there is no update or delete path.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) (uuid.UUID, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Message, error)
}

// UserDirectory resolves an E.164 phone number to a user identity. It is a
// read-only view over the account store, consumed during inbound recording.
type UserDirectory interface {
	FindUserIDByPhone(ctx context.Context, phone string) (uuid.UUID, error)
}
