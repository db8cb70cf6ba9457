package leads

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
)

var (
	emailRegex    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigitRegex = regexp.MustCompile(`\D`)
)

// CaptureRequest is the DTO for POST /api/leads. At least one of email or
// phone must be present.
type CaptureRequest struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Handler serves the unauthenticated landing-page lead capture endpoint.
type Handler struct {
	repo   Repository
	logger *slog.Logger
}

func NewHandler(repo Repository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger.With("handler", "leads"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/leads", h.handleCapture)
}

func (h *Handler) handleCapture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)
	if email == "" && phone == "" {
		h.jsonError(w, "Email or phone number is required", http.StatusBadRequest)
		return
	}

	if email != "" && !emailRegex.MatchString(email) {
		h.jsonError(w, "Invalid email format", http.StatusBadRequest)
		return
	}
	if phone != "" {
		digits := nonDigitRegex.ReplaceAllString(phone, "")
		if len(digits) < 10 || len(digits) > 15 {
			h.jsonError(w, "Invalid phone number", http.StatusBadRequest)
			return
		}
	}

	lead := &Lead{Source: "landing_page"}
	if email != "" {
		normalized := strings.ToLower(email)
		lead.Email = &normalized
	}
	if phone != "" {
		lead.Phone = &phone
	}

	if err := h.repo.Create(ctx, lead); err != nil {
		logger.ErrorContext(ctx, "Failed to store lead", "error", err)
		h.jsonError(w, "Failed to capture lead", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "Lead captured"})
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
