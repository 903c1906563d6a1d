// Package memory provides process-local repositories used for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"authbase/internal/domain/entity"
	domainerrors "authbase/internal/domain/errors"
	"authbase/internal/domain/repository"

	"github.com/google/uuid"
)

// Store holds every table behind one mutex so the conditional updates are atomic.
type Store struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*entity.User
	history []entity.LoginHistoryEntry
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users: make(map[uuid.UUID]*entity.User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

type userRepository struct {
	store *Store
}

// NewUserRepository returns a UserRepository backed by the store.
func NewUserRepository(store *Store) repository.UserRepository {
	return &userRepository{store: store}
}

// Create inserts the user after checking every unique attribute.
func (r *userRepository) Create(_ context.Context, user *entity.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domainerrors.NewDatabaseExecuteError(err, "failed to generate user id")
		}
		user.ID = id
	}
	if _, ok := s.users[user.ID]; ok {
		return domainerrors.ErrUserAlreadyExists.WrapMessage("id already exists")
	}
	if s.conflictLocked(user.ID, user) {
		return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
	}

	now := s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	s.users[user.ID] = user.Clone()

	return nil
}

// conflictLocked reports whether candidate collides with another user on email, Google id or verification token.
func (s *Store) conflictLocked(selfID uuid.UUID, candidate *entity.User) bool {
	for id, u := range s.users {
		if id == selfID {
			continue
		}
		if u.Email == candidate.Email {
			return true
		}
		if sameNonEmpty(u.GoogleID, candidate.GoogleID) || sameNonEmpty(u.EmailVerificationToken, candidate.EmailVerificationToken) {
			return true
		}
	}

	return false
}

func sameNonEmpty(a, b *string) bool {
	return a != nil && b != nil && *a != "" && *a == *b
}

// FindByID retrieves a copy of the user.
func (r *userRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return u.Clone(), nil
}

// FindByEmail performs an exact, case-sensitive match.
func (r *userRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.findFirst(func(u *entity.User) bool { return u.Email == email })
}

// FindByGoogleID finds the account linked to the Google subject.
func (r *userRepository) FindByGoogleID(_ context.Context, googleID string) (*entity.User, error) {
	if googleID == "" {
		return nil, repository.ErrUserNotFound
	}

	return r.findFirst(func(u *entity.User) bool {
		return u.GoogleID != nil && *u.GoogleID == googleID
	})
}

// FindByVerificationToken finds the holder of a live verification token.
func (r *userRepository) FindByVerificationToken(_ context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, repository.ErrUserNotFound
	}

	return r.findFirst(func(u *entity.User) bool {
		return u.EmailVerificationToken != nil && *u.EmailVerificationToken == token
	})
}

func (r *userRepository) findFirst(match func(*entity.User) bool) (*entity.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if match(u) {
			return u.Clone(), nil
		}
	}

	return nil, repository.ErrUserNotFound
}

// Update applies the partial update; a collision on a unique attribute leaves the row untouched.
func (r *userRepository) Update(_ context.Context, id uuid.UUID, update entity.UserUpdate) (*entity.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if update.IsEmpty() {
		return current.Clone(), nil
	}

	next := current.Clone()
	update.Apply(next, s.now())
	if s.conflictLocked(id, next) {
		return nil, domainerrors.ErrUserAlreadyExists.WrapMessage("unique user attribute already taken")
	}
	s.users[id] = next

	return next.Clone(), nil
}

// CompareAndSwapRefreshTokenHash swaps the hash only when the stored one equals expected.
func (r *userRepository) CompareAndSwapRefreshTokenHash(_ context.Context, id uuid.UUID, expected, next string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || expected == "" || u.RefreshTokenHash == nil || *u.RefreshTokenHash != expected {
		return false, nil
	}
	u.RefreshTokenHash = entity.Ptr(next)
	u.UpdatedAt = s.now()

	return true, nil
}

// UpdateIfActive applies update when the stored active flag equals expected.
func (r *userRepository) UpdateIfActive(_ context.Context, id uuid.UUID, expected bool, update entity.UserUpdate) (*entity.User, bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[id]
	if !ok {
		return nil, false, repository.ErrUserNotFound
	}
	if current.IsActive != expected {
		return nil, false, nil
	}

	next := current.Clone()
	update.Apply(next, s.now())
	if s.conflictLocked(id, next) {
		return nil, false, domainerrors.ErrUserAlreadyExists.WrapMessage("unique user attribute already taken")
	}
	s.users[id] = next

	return next.Clone(), true, nil
}

// ConsumeVerificationToken marks the user verified if it still holds token.
func (r *userRepository) ConsumeVerificationToken(_ context.Context, id uuid.UUID, token string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || token == "" || u.EmailVerificationToken == nil || *u.EmailVerificationToken != token {
		return false, nil
	}
	u.IsEmailVerified = true
	u.EmailVerificationToken = nil
	u.EmailVerificationExpires = nil
	u.UpdatedAt = s.now()

	return true, nil
}
