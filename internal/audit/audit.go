package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Action names an auditable operator/user action.
type Action string

const (
	ActionSendMessage  Action = "send_message"
	ActionViewMessages Action = "view_messages"
	ActionViewUsers    Action = "view_users"
	ActionUpdateUser   Action = "update_user"
)

// ResourceType names the entity an audit entry refers to.
type ResourceType string

const (
	ResourceMessage ResourceType = "message"
	ResourceUser    ResourceType = "user"
)

// Recorder writes audit_logs rows. Logging is strictly best-effort: an audit
// failure must never break the flow being audited.
type Recorder struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewRecorder(dbPool *pgxpool.Pool, logger *slog.Logger) *Recorder {
	return &Recorder{
		db:     dbPool,
		logger: logger.With("component", "audit"),
	}
}

// Log records one audit entry. resourceID may be empty; metadata may be nil.
func (r *Recorder) Log(ctx context.Context, userID uuid.UUID, action Action, resourceType ResourceType, resourceID string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metaBytes, err := json.Marshal(metadata)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to marshal audit metadata", "error", err, "action", action)
		return
	}

	query := `
		INSERT INTO audit_logs (user_id, action, resource_type, resource_id, metadata)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
	`
	if _, err := r.db.Exec(ctx, query, userID, action, resourceType, resourceID, metaBytes); err != nil {
		r.logger.ErrorContext(ctx, "Failed to write audit log entry",
			"error", err, "action", action, "resource_type", resourceType, "user_id", userID)
	}
}
