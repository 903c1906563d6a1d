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

const maxToggleAttempts = 3

type userAdminService struct {
	store  usecase.CredentialStore
	logger *slog.Logger
}

// NewUserAdminService is the constructor for userAdminService.
func NewUserAdminService(store usecase.CredentialStore, logger *slog.Logger) usecase.UserAdminUsecase {
	return &userAdminService{store: store, logger: logger}
}

func (srv *userAdminService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetUser returns the projection of one user.
func (srv *userAdminService) GetUser(ctx context.Context, id uuid.UUID) (*usecase.UserProfile, error) {
	user, err := srv.store.FindByID(ctx, id)
	if err != nil {
		return nil, mapUserLookupError(err, "get user")
	}

	return usecase.NewUserProfile(user), nil
}

// ChangeRole sets the user's role; the new role shows up in tokens issued from now on.
func (srv *userAdminService) ChangeRole(ctx context.Context, id uuid.UUID, role string) (*usecase.UserProfile, error) {
	parsed, ok := entity.ParseRole(role)
	if !ok {
		return nil, domainerrors.ErrValidationFailed.WithDetails("role must be ADMIN or USER")
	}

	user, err := srv.store.Update(ctx, id, entity.UserUpdate{Role: &parsed})
	if err != nil {
		return nil, mapUserLookupError(err, "change role")
	}
	srv.log(ctx).Info("User role changed", slog.Any("userID", id), slog.String("role", parsed.String()))

	return usecase.NewUserProfile(user), nil
}

// ToggleActive flips the active flag; deactivation also drops the live refresh token.
// The write is conditional on the flag read, so concurrent toggles each flip once.
func (srv *userAdminService) ToggleActive(ctx context.Context, id uuid.UUID) (*usecase.UserProfile, error) {
	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		current, err := srv.store.FindByID(ctx, id)
		if err != nil {
			return nil, mapUserLookupError(err, "toggle active")
		}

		active := !current.IsActive
		update := entity.UserUpdate{IsActive: &active}
		if !active {
			update.ClearRefreshTokenHash = true
		}

		user, swapped, err := srv.store.UpdateIfActive(ctx, id, current.IsActive, update)
		if err != nil {
			return nil, mapUserLookupError(err, "toggle active")
		}
		if swapped {
			srv.log(ctx).Info("User active flag changed", slog.Any("userID", id), slog.Bool("active", active))

			return usecase.NewUserProfile(user), nil
		}
		srv.log(ctx).Debug("Active flag changed concurrently, retrying", slog.Any("userID", id), slog.Int("attempt", attempt+1))
	}

	return nil, errors.Wrap(domainerrors.ErrConcurrentUpdate, "toggle active")
}

func mapUserLookupError(err error, op string) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return errors.Wrap(domainerrors.ErrUserNotFound, op)
	}

	return errors.Wrap(err, op)
}
