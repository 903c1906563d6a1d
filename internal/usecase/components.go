package usecase

import (
	"context"
	"time"

	"authbase/internal/domain/entity"
	"authbase/internal/domain/service"

	"github.com/google/uuid"
)

// NewCredentials is everything needed to create a local account.
type NewCredentials struct {
	Email               string
	PasswordDigest      string
	FirstName           string
	LastName            string
	VerificationToken   string
	VerificationExpires time.Time
}

// CredentialStore owns users: creation with uniqueness, lookups and the partial-update contract.
type CredentialStore interface {
	// EnsureEmailAvailable fails with ErrUserAlreadyExists when email is taken.
	EnsureEmailAvailable(ctx context.Context, email string) error
	Register(ctx context.Context, creds NewCredentials) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*entity.User, error)
	Update(ctx context.Context, id uuid.UUID, update entity.UserUpdate) (*entity.User, error)
	CompareAndSwapRefreshTokenHash(ctx context.Context, id uuid.UUID, expected, next string) (bool, error)
	ConsumeVerificationToken(ctx context.Context, id uuid.UUID, token string) (bool, error)
	// UpdateIfActive applies update only while the active flag still equals expected.
	UpdateIfActive(ctx context.Context, id uuid.UUID, expected bool, update entity.UserUpdate) (*entity.User, bool, error)
}

// EmailVerificationManager owns the single-use verification token lifecycle.
type EmailVerificationManager interface {
	// NewToken returns a fresh token and its expiry without storing it.
	NewToken() (token string, expires time.Time, err error)
	// Issue stores a fresh token on user, superseding any previous one.
	Issue(ctx context.Context, user *entity.User) (string, error)
	// Verify consumes token and returns the verified user.
	Verify(ctx context.Context, token string) (*entity.User, error)
	// Resend reissues and mails a token. Unknown or throttled addresses succeed silently.
	Resend(ctx context.Context, email string) error
}

// RefreshTokenManager persists the hash of the single live refresh token per user.
type RefreshTokenManager interface {
	// Issue mints a pair and stores its refresh hash together with extra in one update.
	Issue(ctx context.Context, user *entity.User, extra entity.UserUpdate) (*service.TokenPair, *entity.User, error)
	// Rotate exchanges a live refresh token for a new pair; the presented token dies.
	Rotate(ctx context.Context, userID uuid.UUID, presented string) (*service.TokenPair, *entity.User, error)
	// Revoke kills every outstanding refresh token of the user.
	Revoke(ctx context.Context, userID uuid.UUID) error
}

// IdentityResolver maps verified external identities to local users.
type IdentityResolver interface {
	Verify(ctx context.Context, providerToken string) (*service.OAuthUser, error)
	// ResolveOrCreateUser returns the local user for identity and whether it was created.
	ResolveOrCreateUser(ctx context.Context, identity *service.OAuthUser) (*entity.User, bool, error)
}
