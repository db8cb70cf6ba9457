package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	chi_middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/entiremind/backend/internal/messaging/app"
	"github.com/entiremind/backend/internal/messaging/domain"
)

// TelnyxWebhookPayload is Telnyx's structured event envelope. Only the fields
// this system consumes are modelled; the rest of the envelope is ignored.
type TelnyxWebhookPayload struct {
	Data struct {
		EventType string              `json:"event_type"`
		Payload   *TelnyxEventPayload `json:"payload"`
	} `json:"data"`
}

type TelnyxEventPayload struct {
	ID   string `json:"id"`
	From struct {
		PhoneNumber string `json:"phone_number"`
	} `json:"from"`
	To []struct {
		PhoneNumber string `json:"phone_number"`
	} `json:"to"`
	Text string `json:"text"`
}

// ParseTelnyxWebhookPayload decodes a raw webhook body into the envelope.
// It returns nil (never an error) when the payload is not one we understand;
// the handler maps that to a 400.
func ParseTelnyxWebhookPayload(body []byte) *TelnyxWebhookPayload {
	var payload TelnyxWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	if payload.Data.EventType == "" || payload.Data.Payload == nil {
		return nil
	}
	return &payload
}

// TelnyxWebhookHandler receives asynchronous message events from Telnyx.
type TelnyxWebhookHandler struct {
	recorder *app.InboundRecorder
	logger   *slog.Logger
}

func NewTelnyxWebhookHandler(recorder *app.InboundRecorder, logger *slog.Logger) *TelnyxWebhookHandler {
	return &TelnyxWebhookHandler{
		recorder: recorder,
		logger:   logger.With("handler", "telnyx_webhook"),
	}
}

// HandleWebhook processes a Telnyx event. Every recognized event class is
// acknowledged with 200 because Telnyx retries unacknowledged webhooks, and
// uncontrolled retries are worse than dropping a status update.
func (h *TelnyxWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read Telnyx webhook body", "error", err)
		jsonError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	payload := ParseTelnyxWebhookPayload(body)
	if payload == nil {
		logger.WarnContext(ctx, "Invalid Telnyx webhook payload received")
		jsonError(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	eventType := payload.Data.EventType
	messagePayload := payload.Data.Payload
	logger = logger.With("event_type", eventType)

	switch eventType {
	case "message.received":
		fromNumber := messagePayload.From.PhoneNumber
		var toNumber string
		if len(messagePayload.To) > 0 {
			toNumber = messagePayload.To[0].PhoneNumber
		}
		text := messagePayload.Text
		externalMessageID := messagePayload.ID

		if fromNumber == "" || toNumber == "" || text == "" || externalMessageID == "" {
			logger.WarnContext(ctx, "Missing required fields in Telnyx webhook payload")
			jsonError(w, "Missing required fields", http.StatusBadRequest)
			return
		}

		logger.InfoContext(ctx, "Inbound SMS received", "from", fromNumber)

		if _, err := h.recorder.Record(ctx, fromNumber, toNumber, text, externalMessageID, domain.ProviderTelnyx); err != nil {
			// Unknown senders and storage hiccups are logged but still acked
			// with 200 to keep Telnyx from retrying the delivery.
			logger.ErrorContext(ctx, "Failed to store inbound message", "error", err)
		}

	case "message.sent", "message.delivered", "message.finalized":
		// Delivery confirmations are acknowledged but not applied to the
		// stored message's status; no update semantics are defined yet.
		logger.InfoContext(ctx, "Message status update acknowledged", "external_message_id", messagePayload.ID)

	default:
		logger.InfoContext(ctx, "Unhandled Telnyx webhook event type acknowledged")
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// HandleVerification answers Telnyx's GET endpoint checks.
func (h *TelnyxWebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "provider": "telnyx"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
