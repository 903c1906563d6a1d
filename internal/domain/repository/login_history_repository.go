package repository

import (
	"context"

	"authbase/internal/domain/entity"
)

// LoginHistoryRepository appends audit entries. Entries are never updated or deleted.
type LoginHistoryRepository interface {
	// Create appends one entry.
	Create(ctx context.Context, entry *entity.LoginHistoryEntry) error
}
