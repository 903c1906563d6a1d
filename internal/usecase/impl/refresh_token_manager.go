package impl

import (
	"context"
	"log/slog"

	deliverycontext "authbase/internal/delivery/context"
	"authbase/internal/domain/entity"
	domainerrors "authbase/internal/domain/errors"
	"authbase/internal/domain/repository"
	"authbase/internal/domain/service"
	"authbase/internal/usecase"
	"authbase/internal/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type refreshTokenManager struct {
	store  usecase.CredentialStore
	tokens service.TokenService
	hasher service.PasswordHasher
	logger *slog.Logger
}

// NewRefreshTokenManager is the constructor for refreshTokenManager.
func NewRefreshTokenManager(
	store usecase.CredentialStore,
	tokens service.TokenService,
	hasher service.PasswordHasher,
	logger *slog.Logger,
) usecase.RefreshTokenManager {
	return &refreshTokenManager{
		store:  store,
		tokens: tokens,
		hasher: hasher,
		logger: logger,
	}
}

func (m *refreshTokenManager) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, m.logger)
}

// fingerprint shortens a refresh token below bcrypt's 72-byte input limit.
func fingerprint(token string) string {
	return util.SHA256Hex(token)
}

// Issue mints a pair and stores the refresh hash with extra in a single update.
func (m *refreshTokenManager) Issue(ctx context.Context, user *entity.User, extra entity.UserUpdate) (*service.TokenPair, *entity.User, error) {
	pair, digest, err := m.mint(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	extra.RefreshTokenHash = &digest
	extra.ClearRefreshTokenHash = false

	updated, err := m.store.Update(ctx, user.ID, extra)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to store refresh token hash")
	}

	return pair, updated, nil
}

func (m *refreshTokenManager) mint(ctx context.Context, user *entity.User) (*service.TokenPair, string, error) {
	pair, err := m.tokens.IssuePair(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to issue token pair")
	}

	digest, err := m.hasher.Hash(ctx, fingerprint(pair.RefreshToken))
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to hash refresh token")
	}

	return pair, digest, nil
}

// Rotate exchanges the presented refresh token for a new pair. Every rejection is the same
// ErrRefreshDenied and leaves stored state untouched.
func (m *refreshTokenManager) Rotate(ctx context.Context, userID uuid.UUID, presented string) (*service.TokenPair, *entity.User, error) {
	claims, err := m.tokens.Verify(presented, service.TokenKindRefresh)
	if err != nil {
		return nil, nil, errors.Wrap(domainerrors.ErrRefreshDenied, "refresh token rejected")
	}
	if claims.UserID != userID {
		m.log(ctx).Warn("Refresh token subject mismatch", slog.Any("userID", userID))

		return nil, nil, errors.Wrap(domainerrors.ErrRefreshDenied, "refresh token subject mismatch")
	}

	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, errors.Wrap(domainerrors.ErrRefreshDenied, "refresh token owner not found")
		}

		return nil, nil, errors.Wrap(err, "failed to load refresh token owner")
	}

	if user.RefreshTokenHash == nil || *user.RefreshTokenHash == "" || !user.IsActive {
		return nil, nil, errors.Wrap(domainerrors.ErrRefreshDenied, "no live session")
	}
	observed := *user.RefreshTokenHash

	if !m.hasher.Check(ctx, fingerprint(presented), observed) {
		m.log(ctx).Warn("Stale refresh token presented", slog.Any("userID", userID))

		return nil, nil, errors.Wrap(domainerrors.ErrRefreshDenied, "refresh token superseded")
	}

	pair, digest, err := m.mint(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	swapped, err := m.store.CompareAndSwapRefreshTokenHash(ctx, user.ID, observed, digest)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to rotate refresh token")
	}
	if !swapped {
		m.log(ctx).Warn("Concurrent refresh lost rotation race", slog.Any("userID", userID))

		return nil, nil, errors.Wrap(domainerrors.ErrRefreshDenied, "refresh token rotated concurrently")
	}
	user.RefreshTokenHash = &digest

	return pair, user, nil
}

// Revoke clears the stored hash; every outstanding refresh token fails from then on.
func (m *refreshTokenManager) Revoke(ctx context.Context, userID uuid.UUID) error {
	if _, err := m.store.Update(ctx, userID, entity.UserUpdate{ClearRefreshTokenHash: true}); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(domainerrors.ErrUserNotFound, "revoke refresh token")
		}

		return errors.Wrap(err, "failed to revoke refresh token")
	}

	return nil
}
