package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/entiremind/backend/internal/messaging/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgMessageRepository is the PostgreSQL implementation of MessageRepository.
type PgMessageRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgMessageRepository(dbPool *pgxpool.Pool, logger *slog.Logger) *PgMessageRepository {
	return &PgMessageRepository{
		db:     dbPool,
		logger: logger.With("repository", "messages"),
	}
}

// Create inserts a single message row. ID and created_at are assigned by the
// store. No uniqueness is enforced on (provider, external_message_id), so a
// carrier redelivering a webhook produces a duplicate row.
func (r *PgMessageRepository) Create(ctx context.Context, msg *domain.Message) (uuid.UUID, error) {
	query := `
		INSERT INTO messages (
			user_id, direction, from_number, to_number, text,
			external_message_id, provider, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		msg.UserID,
		msg.Direction,
		msg.FromNumber,
		msg.ToNumber,
		msg.Text,
		msg.ExternalMessageID,
		msg.Provider,
		msg.Status,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error inserting message row",
			"error", err, "direction", msg.Direction, "provider", msg.Provider, "user_id", msg.UserID)
		return uuid.Nil, fmt.Errorf("failed to insert message: %w", err)
	}

	return msg.ID, nil
}

// ListByUser returns a user's messages newest first, for the dashboard feed.
// Consumers needing conversation order sort by created_at.
func (r *PgMessageRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT id, user_id, direction, from_number, to_number, text,
		       external_message_id, provider, status, created_at
		FROM messages
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.UserID,
			&msg.Direction,
			&msg.FromNumber,
			&msg.ToNumber,
			&msg.Text,
			&msg.ExternalMessageID,
			&msg.Provider,
			&msg.Status,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}
	return messages, nil
}
