// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"authbase/internal/domain/entity"
	domainerrors "authbase/internal/domain/errors"
	"authbase/internal/domain/repository"
	"authbase/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a domain.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// primary pins reads to the write source so a lookup right after an update never hits a lagging replica.
func (repo *userRepository) primary(ctx context.Context) *gorm.DB {
	return repo.db.WithContext(ctx).Clauses(dbresolver.Write)
}

// FindByID retrieves a single user by their unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return repo.findOne(ctx, "failed to find user by id", "id = ?", id)
}

// FindByEmail retrieves a single user by their email address.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.findOne(ctx, "failed to find user by email", "email = ?", email)
}

// FindByGoogleID retrieves the user linked to the Google subject.
func (repo *userRepository) FindByGoogleID(ctx context.Context, googleID string) (*entity.User, error) {
	if googleID == "" {
		return nil, repository.ErrUserNotFound
	}

	return repo.findOne(ctx, "failed to find user by google id", "google_id = ?", googleID)
}

// FindByVerificationToken retrieves the user holding the given verification token.
func (repo *userRepository) FindByVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, repository.ErrUserNotFound
	}

	return repo.findOne(ctx, "failed to find user by verification token", "email_verification_token = ?", token)
}

func (repo *userRepository) findOne(ctx context.Context, errMsg, query string, args ...any) (*entity.User, error) {
	var userM model.UserModel
	err := repo.primary(ctx).Where(query, args...).Take(&userM).Error
	if err != nil {
		// If the error is 'record not found', return a domain-specific error.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, errMsg)
	}

	// Map the persistence model back to a pure domain entity before returning.
	return toUserDomain(&userM), nil
}

// Create persists a new user entity.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	// Map the pure domain entity to a GORM persistence model.
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
		}
		if isNotNullConstraintViolation(err) || isCheckConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WithDetails("missing required user information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	// Update the user entity with the generated ID and timestamps
	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// Update applies a partial update in a single statement and returns the stored row.
func (repo *userRepository) Update(ctx context.Context, id uuid.UUID, update entity.UserUpdate) (*entity.User, error) {
	if update.IsEmpty() {
		return repo.FindByID(ctx, id)
	}

	var userM model.UserModel
	result := repo.db.WithContext(ctx).
		Model(&userM).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(toUpdateColumns(update, time.Now().UTC()))
	if result.Error != nil {
		if isUniqueConstraintViolation(result.Error) {
			return nil, domainerrors.ErrUserAlreadyExists.WrapMessage("unique user attribute already taken")
		}

		return nil, domainerrors.NewDatabaseExecuteError(result.Error, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrUserNotFound
	}

	return toUserDomain(&userM), nil
}

// CompareAndSwapRefreshTokenHash swaps the stored hash only when it still equals expected.
func (repo *userRepository) CompareAndSwapRefreshTokenHash(ctx context.Context, id uuid.UUID, expected, next string) (bool, error) {
	if expected == "" {
		return false, nil
	}

	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ? AND refresh_token_hash = ?", id, expected).
		Updates(map[string]any{
			"refresh_token_hash": next,
			"updated_at":         time.Now().UTC(),
		})
	if result.Error != nil {
		return false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to rotate refresh token")
	}

	return result.RowsAffected == 1, nil
}

// UpdateIfActive runs the partial update guarded by the observed active flag. When no row
// matches, a follow-up lookup tells a missing user from a lost race.
func (repo *userRepository) UpdateIfActive(ctx context.Context, id uuid.UUID, expected bool, update entity.UserUpdate) (*entity.User, bool, error) {
	var userM model.UserModel
	result := repo.db.WithContext(ctx).
		Model(&userM).
		Clauses(clause.Returning{}).
		Where("id = ? AND is_active = ?", id, expected).
		Updates(toUpdateColumns(update, time.Now().UTC()))
	if result.Error != nil {
		if isUniqueConstraintViolation(result.Error) {
			return nil, false, domainerrors.ErrUserAlreadyExists.WrapMessage("unique user attribute already taken")
		}

		return nil, false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to update user")
	}
	if result.RowsAffected == 0 {
		if _, err := repo.FindByID(ctx, id); err != nil {
			return nil, false, err
		}

		return nil, false, nil
	}

	return toUserDomain(&userM), true, nil
}

// ConsumeVerificationToken verifies the email and clears the token if the row still holds it.
func (repo *userRepository) ConsumeVerificationToken(ctx context.Context, id uuid.UUID, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ? AND email_verification_token = ?", id, token).
		Updates(map[string]any{
			"is_email_verified":          true,
			"email_verification_token":   nil,
			"email_verification_expires": nil,
			"updated_at":                 time.Now().UTC(),
		})
	if result.Error != nil {
		return false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to consume verification token")
	}

	return result.RowsAffected == 1, nil
}

// toUpdateColumns turns the partial update into a column map. A nil map value writes NULL.
func toUpdateColumns(update entity.UserUpdate, now time.Time) map[string]any {
	cols := map[string]any{"updated_at": now}

	if update.FirstName != nil {
		cols["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		cols["last_name"] = *update.LastName
	}
	if update.Role != nil {
		cols["role"] = update.Role.String()
	}
	if update.IsActive != nil {
		cols["is_active"] = *update.IsActive
	}
	if update.IsEmailVerified != nil {
		cols["is_email_verified"] = *update.IsEmailVerified
	}
	if update.GoogleID != nil {
		cols["google_id"] = *update.GoogleID
	}
	if update.AvatarURL != nil {
		cols["avatar_url"] = *update.AvatarURL
	}
	if update.EmailVerificationToken != nil {
		cols["email_verification_token"] = *update.EmailVerificationToken
	}
	if update.EmailVerificationExpires != nil {
		cols["email_verification_expires"] = *update.EmailVerificationExpires
	}
	if update.ClearRefreshTokenHash {
		cols["refresh_token_hash"] = nil
	} else if update.RefreshTokenHash != nil {
		cols["refresh_token_hash"] = *update.RefreshTokenHash
	}
	if update.LastLoginAt != nil {
		cols["last_login_at"] = *update.LastLoginAt
	}
	if update.LastLoginIP != nil {
		cols["last_login_ip"] = *update.LastLoginIP
	}

	return cols
}

// --- Mapper Functions ---

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:                       data.ID,
		Email:                    data.Email,
		PasswordHash:             data.PasswordHash,
		FirstName:                data.FirstName,
		LastName:                 data.LastName,
		Role:                     entity.Role(data.Role),
		Provider:                 entity.Provider(data.Provider),
		GoogleID:                 data.GoogleID,
		AvatarURL:                data.AvatarURL,
		IsEmailVerified:          data.IsEmailVerified,
		EmailVerificationToken:   data.EmailVerificationToken,
		EmailVerificationExpires: data.EmailVerificationExpires,
		RefreshTokenHash:         data.RefreshTokenHash,
		IsActive:                 data.IsActive,
		LastLoginAt:              data.LastLoginAt,
		LastLoginIP:              data.LastLoginIP,
		CreatedAt:                data.CreatedAt,
		UpdatedAt:                data.UpdatedAt,
	}
}

// fromUserDomain converts a domain User entity to a GORM UserModel.
func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	return &model.UserModel{
		ID:                       data.ID,
		Email:                    data.Email,
		PasswordHash:             data.PasswordHash,
		FirstName:                data.FirstName,
		LastName:                 data.LastName,
		Role:                     data.Role.String(),
		Provider:                 string(data.Provider),
		GoogleID:                 data.GoogleID,
		AvatarURL:                data.AvatarURL,
		IsEmailVerified:          data.IsEmailVerified,
		EmailVerificationToken:   data.EmailVerificationToken,
		EmailVerificationExpires: data.EmailVerificationExpires,
		RefreshTokenHash:         data.RefreshTokenHash,
		IsActive:                 data.IsActive,
		LastLoginAt:              data.LastLoginAt,
		LastLoginIP:              data.LastLoginIP,
		CreatedAt:                data.CreatedAt,
		UpdatedAt:                data.UpdatedAt,
	}
}
