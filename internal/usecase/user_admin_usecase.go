package usecase

import (
	"context"

	"github.com/google/uuid"
)

// UserAdminUsecase defines the administrative operations on single accounts.
type UserAdminUsecase interface {
	GetUser(ctx context.Context, id uuid.UUID) (*UserProfile, error)
	// ChangeRole sets the role named by role (ADMIN or USER).
	ChangeRole(ctx context.Context, id uuid.UUID, role string) (*UserProfile, error)
	// ToggleActive flips the active flag. Deactivation also revokes the refresh token.
	ToggleActive(ctx context.Context, id uuid.UUID) (*UserProfile, error)
}
