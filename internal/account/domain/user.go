package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when no user matches the given identifier.
var ErrUserNotFound = errors.New("user not found")

// User is a product account. Identity itself (magic-link/email auth) lives in
// the hosted auth provider; this row holds the profile the backend needs,
// including the phone number that indexes inbound SMS.
type User struct {
	ID                  uuid.UUID `json:"id"`
	Email               string    `json:"email"`
	Name                string    `json:"name"`
	Phone               string    `json:"phone"` // E.164, empty until onboarding
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// UserRepository is the persistence contract for user profiles.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// CompleteOnboarding stores the profile fields collected by the
	// onboarding wizard and marks the account as onboarded.
	CompleteOnboarding(ctx context.Context, id uuid.UUID, name, phone string) error
}
