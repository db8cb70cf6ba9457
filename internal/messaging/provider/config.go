package provider

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/entiremind/backend/internal/messaging/domain"
	"github.com/entiremind/backend/internal/platform/config"
)

// ActiveProvider normalizes the configured carrier choice. Anything other
// than "telnyx" falls back to Twilio, matching the original deployment
// default.
func ActiveProvider(cfg *config.Config) domain.Provider {
	if strings.EqualFold(cfg.SMSProvider, string(domain.ProviderTelnyx)) {
		return domain.ProviderTelnyx
	}
	return domain.ProviderTwilio
}

// NewAdaptersFromConfig builds an adapter for every carrier with credentials
// present. Outside production an empty set degrades to a mock adapter so the
// service can run locally without carrier accounts; in production a missing
// active carrier is a fatal misconfiguration.
func NewAdaptersFromConfig(cfg *config.Config, logger *slog.Logger) (map[domain.Provider]Adapter, error) {
	adapters := make(map[domain.Provider]Adapter)

	if cfg.TelnyxAPIKey != "" && cfg.TelnyxPhoneNumber != "" {
		telnyx, err := NewTelnyxProvider(logger, cfg.TelnyxAPIKey, cfg.TelnyxPhoneNumber, "", nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build telnyx adapter: %w", err)
		}
		adapters[domain.ProviderTelnyx] = telnyx
	}

	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioPhoneNumber != "" {
		twilio, err := NewTwilioProvider(logger, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, "", nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build twilio adapter: %w", err)
		}
		adapters[domain.ProviderTwilio] = twilio
	}

	active := ActiveProvider(cfg)
	if _, ok := adapters[active]; !ok {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("active SMS provider %q is not configured", active)
		}
		logger.Warn("Active SMS provider not configured, using mock adapter", "provider", active)
		adapters[active] = NewMockProvider(logger, active, "+15550000000")
	}

	return adapters, nil
}
