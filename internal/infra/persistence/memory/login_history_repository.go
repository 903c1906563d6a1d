package memory

import (
	"context"
	"slices"

	"authbase/internal/domain/entity"
	domainerrors "authbase/internal/domain/errors"
	"authbase/internal/domain/repository"

	"github.com/google/uuid"
)

// LoginHistoryRepository appends entries to the store.
type LoginHistoryRepository struct {
	store *Store
}

var _ repository.LoginHistoryRepository = (*LoginHistoryRepository)(nil)

// NewLoginHistoryRepository returns an append-only history backed by the store.
func NewLoginHistoryRepository(store *Store) *LoginHistoryRepository {
	return &LoginHistoryRepository{store: store}
}

// Create appends one entry.
func (r *LoginHistoryRepository) Create(_ context.Context, entry *entity.LoginHistoryEntry) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domainerrors.NewDatabaseExecuteError(err, "failed to generate history id")
		}
		entry.ID = id
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	s.history = append(s.history, *entry)

	return nil
}

// Entries returns a snapshot of the history in insertion order.
func (r *LoginHistoryRepository) Entries() []entity.LoginHistoryEntry {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.history)
}
