package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/entiremind/backend/internal/messaging/domain"
	"github.com/google/uuid"
)

// MockProvider is a test implementation of Adapter.
type MockProvider struct {
	logger *slog.Logger

	ProviderName   domain.Provider
	Number         string
	FailSend       bool          // simulate a carrier rejection
	SendErr        error         // simulate a transport failure
	SimulatedDelay time.Duration // simulate network latency
}

// NewMockProvider creates a MockProvider posing as the given carrier.
func NewMockProvider(logger *slog.Logger, name domain.Provider, number string) *MockProvider {
	return &MockProvider{
		logger:       logger.With("provider", "mock"),
		ProviderName: name,
		Number:       number,
	}
}

func (p *MockProvider) Send(ctx context.Context, toNumber, body string) (*SendResult, error) {
	if toNumber == "" {
		return nil, errors.New("mock: destination number is empty")
	}
	if p.SimulatedDelay > 0 {
		time.Sleep(p.SimulatedDelay)
	}
	if p.SendErr != nil {
		return nil, p.SendErr
	}
	if p.FailSend {
		p.logger.WarnContext(ctx, "mock provider simulated send failure", "to", toNumber)
		return &SendResult{Success: false, ErrorDescription: "mock provider simulated send failure"}, nil
	}
	externalID := "mock-" + uuid.NewString()
	p.logger.InfoContext(ctx, "mock provider send succeeded", "to", toNumber, "external_message_id", externalID)
	return &SendResult{Success: true, ExternalMessageID: externalID}, nil
}

func (p *MockProvider) PhoneNumber() string {
	return p.Number
}

func (p *MockProvider) Name() domain.Provider {
	return p.ProviderName
}
