// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"authbase/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned by lookups when no user matches.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the storage contract for users. Implementations must enforce uniqueness of
// email and non-null verification token, and must run the conditional updates atomically.
type UserRepository interface {
	// Create persists a new user. ID and timestamps are assigned by the repository when zero.
	// A uniqueness violation is reported as domainerrors.ErrUserAlreadyExists.
	Create(ctx context.Context, user *entity.User) error

	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by exact email.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByGoogleID retrieves the user linked to a Google subject.
	FindByGoogleID(ctx context.Context, googleID string) (*entity.User, error)

	// FindByVerificationToken retrieves the user currently holding the verification token.
	FindByVerificationToken(ctx context.Context, token string) (*entity.User, error)

	// Update applies a partial update and returns the stored user.
	Update(ctx context.Context, id uuid.UUID, update entity.UserUpdate) (*entity.User, error)

	// CompareAndSwapRefreshTokenHash replaces the refresh token hash only if it still equals expected.
	// It reports whether the swap happened.
	CompareAndSwapRefreshTokenHash(ctx context.Context, id uuid.UUID, expected, next string) (bool, error)

	// UpdateIfActive applies update only while the active flag still equals expected.
	// It reports whether the row was updated; a missing user is ErrUserNotFound.
	UpdateIfActive(ctx context.Context, id uuid.UUID, expected bool, update entity.UserUpdate) (*entity.User, bool, error)

	// ConsumeVerificationToken marks the user verified and clears the token only if the user still holds it.
	// It reports whether the token was consumed by this call.
	ConsumeVerificationToken(ctx context.Context, id uuid.UUID, token string) (bool, error)
}
