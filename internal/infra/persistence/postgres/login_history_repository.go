package postgres

import (
	"context"

	"authbase/internal/domain/entity"
	domainerrors "authbase/internal/domain/errors"
	"authbase/internal/domain/repository"
	"authbase/internal/infra/persistence/model"

	"gorm.io/gorm"
)

type loginHistoryRepository struct {
	db *gorm.DB
}

// NewLoginHistoryRepository is the constructor for the append-only audit table.
func NewLoginHistoryRepository(db *gorm.DB) repository.LoginHistoryRepository {
	return &loginHistoryRepository{db: db}
}

// Create appends one entry.
func (repo *loginHistoryRepository) Create(ctx context.Context, entry *entity.LoginHistoryEntry) error {
	entryM := fromLoginHistoryDomain(entry)
	if err := repo.db.WithContext(ctx).Create(entryM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to append login history")
	}

	entry.ID = entryM.ID
	entry.CreatedAt = entryM.CreatedAt

	return nil
}

func fromLoginHistoryDomain(data *entity.LoginHistoryEntry) *model.LoginHistoryModel {
	return &model.LoginHistoryModel{
		ID:        data.ID,
		UserID:    data.UserID,
		Action:    string(data.Action),
		IP:        optionalString(data.IP),
		UserAgent: optionalString(data.UserAgent),
		Provider:  optionalString(string(data.Provider)),
		Details:   optionalString(data.Details),
		CreatedAt: data.CreatedAt,
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
