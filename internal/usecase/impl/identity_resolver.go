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

	"github.com/pkg/errors"
)

const (
	defaultGoogleFirstName = "Google"
	defaultGoogleLastName  = "User"
)

type identityResolver struct {
	txManager repository.TransactionManager
	oauth     service.OAuthAuthService
	logger    *slog.Logger
}

// NewIdentityResolver is the constructor for identityResolver.
func NewIdentityResolver(txManager repository.TransactionManager, oauth service.OAuthAuthService, logger *slog.Logger) usecase.IdentityResolver {
	return &identityResolver{txManager: txManager, oauth: oauth, logger: logger}
}

func (r *identityResolver) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, r.logger)
}

// Verify checks the provider token; every failure is ErrInvalidExternalToken.
func (r *identityResolver) Verify(ctx context.Context, providerToken string) (*service.OAuthUser, error) {
	identity, err := r.oauth.VerifyIDToken(ctx, providerToken)
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidExternalToken) {
			return nil, err
		}

		return nil, errors.Wrap(domainerrors.ErrInvalidExternalToken, err.Error())
	}

	return identity, nil
}

// ResolveOrCreateUser finds the user by Google subject, then by email, and links or creates it
// inside a transaction. A concurrent first login that wins the insert is picked up by a single
// retry; a conflict that survives the retry rejects the identity.
func (r *identityResolver) ResolveOrCreateUser(ctx context.Context, identity *service.OAuthUser) (*entity.User, bool, error) {
	user, created, err := r.resolve(ctx, identity)
	if errors.Is(err, domainerrors.ErrUserAlreadyExists) {
		r.log(ctx).Info("Google user created concurrently, retrying lookup", slog.String("email", identity.Email))
		user, created, err = r.resolve(ctx, identity)
	}
	if errors.Is(err, domainerrors.ErrUserAlreadyExists) {
		r.log(ctx).Warn("Google identity conflicts with another account", slog.String("email", identity.Email))

		return nil, false, errors.Wrap(domainerrors.ErrInvalidExternalToken, "google identity conflicts with an existing account")
	}
	if err != nil {
		return nil, false, err
	}

	return user, created, nil
}

func (r *identityResolver) resolve(ctx context.Context, identity *service.OAuthUser) (*entity.User, bool, error) {
	var (
		user    *entity.User
		created bool
	)

	err := r.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		linked, err := userRepo.FindByGoogleID(ctx, identity.ID)
		switch {
		case err == nil:
			// The subject is stable; the email Google reports may have changed since the link.
			user = linked

			return nil
		case !errors.Is(err, repository.ErrUserNotFound):
			return errors.Wrap(err, "failed to find user by google id")
		}

		existing, err := userRepo.FindByEmail(ctx, identity.Email)
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			user, err = r.createGoogleUser(ctx, userRepo, identity)
			created = err == nil

			return err
		case err != nil:
			return errors.Wrap(err, "failed to find user by email")
		}

		user, err = r.linkGoogleAccount(ctx, userRepo, existing, identity)

		return err
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to resolve Google identity")
	}

	return user, created, nil
}

func (r *identityResolver) createGoogleUser(ctx context.Context, userRepo repository.UserRepository, identity *service.OAuthUser) (*entity.User, error) {
	r.log(ctx).Info("Google user not found, creating new user", slog.String("email", identity.Email))

	newUser := &entity.User{
		Email:           identity.Email,
		FirstName:       fallback(identity.GivenName, defaultGoogleFirstName),
		LastName:        fallback(identity.FamilyName, defaultGoogleLastName),
		Role:            entity.RoleUser,
		Provider:        entity.ProviderGoogle,
		GoogleID:        entity.Ptr(identity.ID),
		IsEmailVerified: true,
		IsActive:        true,
	}
	if identity.AvatarURL != "" {
		newUser.AvatarURL = entity.Ptr(identity.AvatarURL)
	}

	if err := userRepo.Create(ctx, newUser); err != nil {
		return nil, errors.Wrap(err, "failed to create Google user")
	}

	return newUser, nil
}

// linkGoogleAccount attaches the Google subject to an existing account and marks it verified.
// Deactivated or already linked accounts are returned unchanged; an existing avatar is never overwritten.
func (r *identityResolver) linkGoogleAccount(ctx context.Context, userRepo repository.UserRepository, user *entity.User, identity *service.OAuthUser) (*entity.User, error) {
	if !user.IsActive {
		r.log(ctx).Info("Skipping Google link for deactivated account", slog.Any("userID", user.ID))

		return user, nil
	}
	if user.IsGoogleLinked() {
		if *user.GoogleID != identity.ID {
			r.log(ctx).Warn("Email already linked to another Google subject", slog.Any("userID", user.ID))
		}

		return user, nil
	}

	update := entity.UserUpdate{
		GoogleID:        entity.Ptr(identity.ID),
		IsEmailVerified: entity.Ptr(true),
	}
	if (user.AvatarURL == nil || *user.AvatarURL == "") && identity.AvatarURL != "" {
		update.AvatarURL = entity.Ptr(identity.AvatarURL)
	}

	linked, err := userRepo.Update(ctx, user.ID, update)
	if err != nil {
		return nil, errors.Wrap(err, "failed to link Google account")
	}
	r.log(ctx).Info("Linked Google account to existing user", slog.Any("userID", user.ID))

	return linked, nil
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}

	return value
}
