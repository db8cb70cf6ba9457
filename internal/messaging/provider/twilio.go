package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/entiremind/backend/internal/messaging/domain"
)

// DefaultTwilioAPIBaseURL is the production Twilio API host.
const DefaultTwilioAPIBaseURL = "https://api.twilio.com"

// TwilioProvider sends messages through the Twilio Messages REST API.
type TwilioProvider struct {
	logger      *slog.Logger
	httpClient  *http.Client
	baseURL     string
	accountSID  string
	authToken   string
	phoneNumber string
}

// NewTwilioProvider validates credentials and builds the adapter.
func NewTwilioProvider(logger *slog.Logger, accountSID, authToken, phoneNumber, baseURL string, httpClient *http.Client) (*TwilioProvider, error) {
	if accountSID == "" || authToken == "" {
		return nil, errors.New("twilio: account SID and auth token are not configured")
	}
	if phoneNumber == "" {
		return nil, errors.New("twilio: phone number is not configured")
	}
	if baseURL == "" {
		baseURL = DefaultTwilioAPIBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TwilioProvider{
		logger:      logger.With("provider", "twilio"),
		httpClient:  httpClient,
		baseURL:     baseURL,
		accountSID:  accountSID,
		authToken:   authToken,
		phoneNumber: phoneNumber,
	}, nil
}

type twilioSendResponse struct {
	SID string `json:"sid"`
}

type twilioErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send makes exactly one call to the Twilio API. Carrier rejections come back
// as Success=false with the Twilio error code and message.
func (p *TwilioProvider) Send(ctx context.Context, toNumber, body string) (*SendResult, error) {
	if toNumber == "" {
		return nil, errors.New("twilio: destination number is empty")
	}
	if body == "" {
		return nil, errors.New("twilio: message body is empty")
	}

	form := url.Values{}
	form.Set("To", toNumber)
	form.Set("From", p.phoneNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", p.baseURL, p.accountSID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("twilio: failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(p.accountSID, p.authToken)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("twilio: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("twilio: failed to read response body (status %d): %w", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
		var resp twilioSendResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			p.logger.WarnContext(ctx, "Twilio accepted send but response body could not be parsed",
				"status_code", httpResp.StatusCode, "error", err)
			return &SendResult{Success: true}, nil
		}
		p.logger.InfoContext(ctx, "SMS sent via Twilio", "to", toNumber, "external_message_id", resp.SID)
		return &SendResult{Success: true, ExternalMessageID: resp.SID}, nil
	}

	errMsg := fmt.Sprintf("Twilio API error: status %d", httpResp.StatusCode)
	var errResp twilioErrorResponse
	if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
		errMsg = fmt.Sprintf("Twilio error %d: %s", errResp.Code, errResp.Message)
	}
	p.logger.WarnContext(ctx, "Twilio send failed", "status_code", httpResp.StatusCode, "to", toNumber, "error_message", errMsg)
	return &SendResult{Success: false, ErrorDescription: errMsg}, nil
}

func (p *TwilioProvider) PhoneNumber() string {
	return p.phoneNumber
}

func (p *TwilioProvider) Name() domain.Provider {
	return domain.ProviderTwilio
}
