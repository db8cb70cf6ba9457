package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	accountdomain "github.com/entiremind/backend/internal/account/domain"
	"github.com/entiremind/backend/internal/api/middleware"
	"github.com/entiremind/backend/internal/audit"
	"github.com/entiremind/backend/internal/messaging/app"
	"github.com/entiremind/backend/internal/messaging/domain"
)

// SendMessageRequest is the DTO for POST /api/messages/send. When no target
// number is given the user's stored phone is used.
type SendMessageRequest struct {
	Text          string `json:"text" validate:"required,min=1"`
	ToPhoneNumber string `json:"to_phone_number,omitempty"`
}

// SendMessageResponse is the DTO returned on a successful send.
type SendMessageResponse struct {
	Success           bool      `json:"success"`
	MessageID         uuid.UUID `json:"message_id,omitempty"`
	ExternalMessageID string    `json:"external_message_id,omitempty"`
	Warning           string    `json:"warning,omitempty"`
}

// AuditLogger is the slice of the audit recorder the handler needs,
// as an interface so tests can substitute a no-op.
type AuditLogger interface {
	Log(ctx context.Context, userID uuid.UUID, action audit.Action, resourceType audit.ResourceType, resourceID string, metadata map[string]any)
}

// MessageHandler serves the authenticated messaging API used by the dashboard.
type MessageHandler struct {
	sender   *app.SendService
	messages domain.MessageRepository
	users    accountdomain.UserRepository
	auditor  AuditLogger
	validate *validator.Validate
	logger   *slog.Logger
}

func NewMessageHandler(
	sender *app.SendService,
	messages domain.MessageRepository,
	users accountdomain.UserRepository,
	auditor AuditLogger,
	validate *validator.Validate,
	logger *slog.Logger,
) *MessageHandler {
	return &MessageHandler{
		sender:   sender,
		messages: messages,
		users:    users,
		auditor:  auditor,
		validate: validate,
		logger:   logger.With("handler", "message"),
	}
}

// RegisterRoutes registers the message routes on an authenticated router.
func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Post("/messages/send", h.handleSendMessage)
	r.Get("/messages", h.handleListMessages)
}

func (h *MessageHandler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	authUser, ok := middleware.UserFromContext(ctx)
	if !ok {
		jsonError(w, "Not authenticated", http.StatusUnauthorized)
		return
	}
	logger = logger.With("user_id", authUser.ID)

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "Failed to decode send message request", "error", err)
		jsonError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		jsonError(w, "Message text is required", http.StatusBadRequest)
		return
	}

	targetPhone := req.ToPhoneNumber
	if targetPhone == "" {
		user, err := h.users.GetByID(ctx, authUser.ID)
		if err != nil {
			if errors.Is(err, accountdomain.ErrUserNotFound) {
				jsonError(w, "User phone number not found", http.StatusBadRequest)
				return
			}
			logger.ErrorContext(ctx, "Failed to load user for send", "error", err)
			jsonError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if user.Phone == "" {
			jsonError(w, "User phone number not found", http.StatusBadRequest)
			return
		}
		targetPhone = user.Phone
	}

	result := h.sender.Send(ctx, authUser.ID, targetPhone, req.Text)
	if !result.Success {
		// Detailed carrier errors stay in the logs; the caller gets the
		// structured description only.
		jsonError(w, result.ErrorDescription, http.StatusInternalServerError)
		return
	}

	h.auditor.Log(ctx, authUser.ID, audit.ActionSendMessage, audit.ResourceMessage, result.MessageID.String(), map[string]any{
		"to_number": targetPhone,
	})

	writeJSON(w, http.StatusCreated, SendMessageResponse{
		Success:           true,
		MessageID:         result.MessageID,
		ExternalMessageID: result.ExternalMessageID,
		Warning:           result.Warning,
	})
}

func (h *MessageHandler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	authUser, ok := middleware.UserFromContext(ctx)
	if !ok {
		jsonError(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	messages, err := h.messages.ListByUser(ctx, authUser.ID, limit)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list messages", "error", err, "user_id", authUser.ID)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}
