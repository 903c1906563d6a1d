package service

import (
	"context"

	"authbase/internal/domain/entity"
)

// OAuthUser is the identity asserted by a verified external ID token.
type OAuthUser struct {
	ID         string          // Provider subject id (Google 'sub').
	Email      string          // Email asserted by the provider.
	GivenName  string          // Optional given name.
	FamilyName string          // Optional family name.
	AvatarURL  string          // Optional picture URL.
	Provider   entity.Provider // Provider that issued the token.
}

// OAuthAuthService verifies provider ID tokens. Any failure is reported as
// domainerrors.ErrInvalidExternalToken so callers cannot tell reasons apart.
type OAuthAuthService interface {
	// VerifyIDToken verifies an ID token and returns the asserted identity.
	VerifyIDToken(ctx context.Context, idToken string) (*OAuthUser, error)

	// GetProvider returns the provider this verifier serves.
	GetProvider() entity.Provider
}
