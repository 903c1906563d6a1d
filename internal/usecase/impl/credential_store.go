// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"

	deliverycontext "authbase/internal/delivery/context"
	"authbase/internal/domain/entity"
	domainerrors "authbase/internal/domain/errors"
	"authbase/internal/domain/repository"
	"authbase/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// credentialStore implements usecase.CredentialStore on top of the user repository.
type credentialStore struct {
	userRepo repository.UserRepository
	logger   *slog.Logger
}

// NewCredentialStore is the constructor for credentialStore.
func NewCredentialStore(userRepo repository.UserRepository, logger *slog.Logger) usecase.CredentialStore {
	return &credentialStore{userRepo: userRepo, logger: logger}
}

// EnsureEmailAvailable fails with ErrUserAlreadyExists when the email is taken.
func (s *credentialStore) EnsureEmailAvailable(ctx context.Context, email string) error {
	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return errors.Wrap(domainerrors.ErrUserAlreadyExists, "email already registered")
	}
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil
	}

	return errors.Wrap(err, "failed to check email availability")
}

// Register creates an unverified, active local user holding a verification token.
// A uniqueness violation raised by a concurrent registration surfaces as ErrUserAlreadyExists.
func (s *credentialStore) Register(ctx context.Context, creds usecase.NewCredentials) (*entity.User, error) {
	if err := s.EnsureEmailAvailable(ctx, creds.Email); err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:                    creds.Email,
		PasswordHash:             entity.Ptr(creds.PasswordDigest),
		FirstName:                creds.FirstName,
		LastName:                 creds.LastName,
		Role:                     entity.RoleUser,
		Provider:                 entity.ProviderLocal,
		IsEmailVerified:          false,
		EmailVerificationToken:   entity.Ptr(creds.VerificationToken),
		EmailVerificationExpires: entity.Ptr(creds.VerificationExpires),
		IsActive:                 true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domainerrors.ErrUserAlreadyExists) {
			deliverycontext.GetLoggerOrDefault(ctx, s.logger).Warn("Registration lost uniqueness race", slog.String("email", creds.Email))

			return nil, errors.Wrap(domainerrors.ErrUserAlreadyExists, "email already registered")
		}

		return nil, errors.Wrap(err, "failed to create user")
	}

	return user, nil
}

func (s *credentialStore) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return s.userRepo.FindByEmail(ctx, email)
}

func (s *credentialStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

func (s *credentialStore) FindByVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	return s.userRepo.FindByVerificationToken(ctx, token)
}

// Update is the single partial-update contract for users.
func (s *credentialStore) Update(ctx context.Context, id uuid.UUID, update entity.UserUpdate) (*entity.User, error) {
	return s.userRepo.Update(ctx, id, update)
}

func (s *credentialStore) CompareAndSwapRefreshTokenHash(ctx context.Context, id uuid.UUID, expected, next string) (bool, error) {
	return s.userRepo.CompareAndSwapRefreshTokenHash(ctx, id, expected, next)
}

func (s *credentialStore) UpdateIfActive(ctx context.Context, id uuid.UUID, expected bool, update entity.UserUpdate) (*entity.User, bool, error) {
	return s.userRepo.UpdateIfActive(ctx, id, expected, update)
}

func (s *credentialStore) ConsumeVerificationToken(ctx context.Context, id uuid.UUID, token string) (bool, error) {
	return s.userRepo.ConsumeVerificationToken(ctx, id, token)
}
