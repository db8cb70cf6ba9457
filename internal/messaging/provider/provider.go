package provider

import (
	"context"

	"github.com/entiremind/backend/internal/messaging/domain"
)

// SendResult holds the outcome of a send attempt against a carrier API.
// Ordinary carrier-side failures (invalid destination, throttling, carrier
// auth errors) come back as Success=false with a human-readable description,
// never as a Go error.
type SendResult struct {
	Success           bool
	ExternalMessageID string // carrier's ID for the message; empty on failure
	ErrorDescription  string
}

// Adapter is the uniform interface over one carrier's send API.
// Implementations make exactly one network call per Send and never retry;
// retry policy belongs to the caller. Missing credentials or origination
// number are constructor-time errors, not per-message failures.
type Adapter interface {
	Send(ctx context.Context, toNumber, body string) (*SendResult, error)
	PhoneNumber() string
	Name() domain.Provider
}
