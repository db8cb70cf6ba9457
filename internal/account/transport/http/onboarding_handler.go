package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/entiremind/backend/internal/account/domain"
	"github.com/entiremind/backend/internal/api/middleware"
	messagingapp "github.com/entiremind/backend/internal/messaging/app"
	"github.com/entiremind/backend/internal/platform/messagebroker"
)

// CompleteOnboardingRequest is the DTO for POST /api/onboarding/complete.
type CompleteOnboardingRequest struct {
	Name  string `json:"name" validate:"required,min=1"`
	Phone string `json:"phone" validate:"required,e164"`
}

// OnboardingHandler finalizes the onboarding wizard: stores the profile and
// queues the welcome SMS for the worker.
type OnboardingHandler struct {
	users    domain.UserRepository
	nats     messagebroker.NATSClient
	validate *validator.Validate
	logger   *slog.Logger
}

func NewOnboardingHandler(users domain.UserRepository, natsClient messagebroker.NATSClient, validate *validator.Validate, logger *slog.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		users:    users,
		nats:     natsClient,
		validate: validate,
		logger:   logger.With("handler", "onboarding"),
	}
}

func (h *OnboardingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/onboarding/complete", h.handleComplete)
}

func (h *OnboardingHandler) handleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	authUser, ok := middleware.UserFromContext(ctx)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}
	logger = logger.With("user_id", authUser.ID)

	var req CompleteOnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "Failed to decode onboarding request", "error", err)
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		http.Error(w, "Name and an E.164 phone number are required", http.StatusBadRequest)
		return
	}

	if err := h.users.CompleteOnboarding(ctx, authUser.ID, req.Name, req.Phone); err != nil {
		logger.ErrorContext(ctx, "Failed to complete onboarding", "error", err)
		http.Error(w, "Failed to complete onboarding", http.StatusInternalServerError)
		return
	}

	// The welcome SMS is queued, not sent inline: the wizard response should
	// not wait on a carrier API. Publish failures are logged only; onboarding
	// itself has already succeeded.
	event := messagingapp.OnboardingCompletedEvent{UserID: authUser.ID, Name: req.Name, Phone: req.Phone}
	if data, err := json.Marshal(event); err != nil {
		logger.ErrorContext(ctx, "Failed to marshal onboarding completed event", "error", err)
	} else if err := h.nats.Publish(ctx, messagingapp.SubjectOnboardingCompleted, data); err != nil {
		logger.ErrorContext(ctx, "Failed to publish onboarding completed event", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
