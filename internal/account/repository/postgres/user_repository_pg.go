package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/entiremind/backend/internal/account/domain"
	messagingdomain "github.com/entiremind/backend/internal/messaging/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgUserRepository is the PostgreSQL implementation of UserRepository.
// It also implements the messaging UserDirectory, serving as the read-only
// phone-to-user index consumed during inbound recording.
type PgUserRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgUserRepository(dbPool *pgxpool.Pool, logger *slog.Logger) *PgUserRepository {
	return &PgUserRepository{
		db:     dbPool,
		logger: logger.With("repository", "users"),
	}
}

func (r *PgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, email, COALESCE(name, ''), COALESCE(phone, ''), onboarding_completed, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user domain.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Phone,
		&user.OnboardingCompleted,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

func (r *PgUserRepository) CompleteOnboarding(ctx context.Context, id uuid.UUID, name, phone string) error {
	query := `
		UPDATE users
		SET name = $2, phone = $3, onboarding_completed = TRUE, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, name, phone)
	if err != nil {
		return fmt.Errorf("failed to complete onboarding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// FindUserIDByPhone resolves an E.164 phone number to a user id. Implements
// messaging's UserDirectory; an unmatched number maps to ErrUnknownSender so
// the inbound path can distinguish "drop" from "database broke".
func (r *PgUserRepository) FindUserIDByPhone(ctx context.Context, phone string) (uuid.UUID, error) {
	query := `SELECT id FROM users WHERE phone = $1`
	var id uuid.UUID
	err := r.db.QueryRow(ctx, query, phone).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, messagingdomain.ErrUnknownSender
		}
		r.logger.ErrorContext(ctx, "Error looking up user by phone", "error", err)
		return uuid.Nil, fmt.Errorf("failed to look up user by phone: %w", err)
	}
	return id, nil
}
