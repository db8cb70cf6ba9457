package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/entiremind/backend/internal/messaging/domain"
)

// DefaultTelnyxAPIBaseURL is the production Telnyx API host.
const DefaultTelnyxAPIBaseURL = "https://api.telnyx.com"

// TelnyxProvider sends messages through the Telnyx v2 messages API.
type TelnyxProvider struct {
	logger      *slog.Logger
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	phoneNumber string
}

// NewTelnyxProvider validates credentials and builds the adapter. A missing
// API key or origination number is a deployment misconfiguration and is
// reported here rather than on every send.
func NewTelnyxProvider(logger *slog.Logger, apiKey, phoneNumber, baseURL string, httpClient *http.Client) (*TelnyxProvider, error) {
	if apiKey == "" {
		return nil, errors.New("telnyx: API key is not configured")
	}
	if phoneNumber == "" {
		return nil, errors.New("telnyx: phone number is not configured")
	}
	if baseURL == "" {
		baseURL = DefaultTelnyxAPIBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TelnyxProvider{
		logger:      logger.With("provider", "telnyx"),
		httpClient:  httpClient,
		baseURL:     baseURL,
		apiKey:      apiKey,
		phoneNumber: phoneNumber,
	}, nil
}

type telnyxSendRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

type telnyxSendResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type telnyxErrorResponse struct {
	Errors []struct {
		Code   string `json:"code"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// Send makes exactly one call to the Telnyx API. Carrier rejections come back
// as Success=false; only transport-level problems surface as an error.
func (p *TelnyxProvider) Send(ctx context.Context, toNumber, body string) (*SendResult, error) {
	if toNumber == "" {
		return nil, errors.New("telnyx: destination number is empty")
	}
	if body == "" {
		return nil, errors.New("telnyx: message body is empty")
	}

	reqBytes, err := json.Marshal(telnyxSendRequest{From: p.phoneNumber, To: toNumber, Text: body})
	if err != nil {
		return nil, fmt.Errorf("telnyx: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v2/messages", bytes.NewBuffer(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("telnyx: failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("telnyx: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("telnyx: failed to read response body (status %d): %w", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
		var resp telnyxSendResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			// The carrier accepted the message even though we could not parse
			// the acknowledgment; report success without an external ID.
			p.logger.WarnContext(ctx, "Telnyx accepted send but response body could not be parsed",
				"status_code", httpResp.StatusCode, "error", err)
			return &SendResult{Success: true}, nil
		}
		p.logger.InfoContext(ctx, "SMS sent via Telnyx", "to", toNumber, "external_message_id", resp.Data.ID)
		return &SendResult{Success: true, ExternalMessageID: resp.Data.ID}, nil
	}

	errMsg := fmt.Sprintf("Telnyx API error: status %d", httpResp.StatusCode)
	var errResp telnyxErrorResponse
	if err := json.Unmarshal(respBody, &errResp); err == nil && len(errResp.Errors) > 0 {
		e := errResp.Errors[0]
		errMsg = fmt.Sprintf("Telnyx error %s: %s", e.Code, e.Detail)
		if e.Detail == "" {
			errMsg = fmt.Sprintf("Telnyx error %s: %s", e.Code, e.Title)
		}
	}
	p.logger.WarnContext(ctx, "Telnyx send failed", "status_code", httpResp.StatusCode, "to", toNumber, "error_message", errMsg)
	return &SendResult{Success: false, ErrorDescription: errMsg}, nil
}

func (p *TelnyxProvider) PhoneNumber() string {
	return p.phoneNumber
}

func (p *TelnyxProvider) Name() domain.Provider {
	return domain.ProviderTelnyx
}
