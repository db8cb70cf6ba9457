package leads

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Lead is a landing-page signup captured before account creation.
// At least one of Email or Phone is always present.
type Lead struct {
	ID        uuid.UUID `json:"id"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository is the persistence contract for leads.
type Repository interface {
	Create(ctx context.Context, lead *Lead) error
}

// PgRepository is the PostgreSQL implementation of Repository.
type PgRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgRepository(dbPool *pgxpool.Pool, logger *slog.Logger) *PgRepository {
	return &PgRepository{
		db:     dbPool,
		logger: logger.With("repository", "leads"),
	}
}

func (r *PgRepository) Create(ctx context.Context, lead *Lead) error {
	query := `
		INSERT INTO leads (email, phone, source)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, lead.Email, lead.Phone, lead.Source).Scan(&lead.ID, &lead.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error inserting lead", "error", err, "source", lead.Source)
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}
