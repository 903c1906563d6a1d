package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"authbase/internal/domain/entity"
	domainerrors "authbase/internal/domain/errors"
	"authbase/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(email string) *entity.User {
	return &entity.User{
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
		Role:      entity.RoleUser,
		Provider:  entity.ProviderLocal,
		IsActive:  true,
	}
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewStore())

	user := newUser("a@example.com")
	user.EmailVerificationToken = entity.Ptr("tok-1")
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", byID.Email)

	byEmail, err := repo.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.FindByEmail(ctx, "A@example.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	byToken, err := repo.FindByVerificationToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byToken.ID)

	_, err = repo.FindByVerificationToken(ctx, "")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewStore())
	user := newUser("copy@example.com")
	require.NoError(t, repo.Create(ctx, user))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	found.Email = "mutated@example.com"

	again, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "copy@example.com", again.Email)
}

func TestUserRepository_Uniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewStore())

	first := newUser("dup@example.com")
	first.GoogleID = entity.Ptr("g-1")
	require.NoError(t, repo.Create(ctx, first))

	err := repo.Create(ctx, newUser("dup@example.com"))
	assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)

	other := newUser("other@example.com")
	other.GoogleID = entity.Ptr("g-1")
	assert.ErrorIs(t, repo.Create(ctx, other), domainerrors.ErrUserAlreadyExists)

	second := newUser("second@example.com")
	require.NoError(t, repo.Create(ctx, second))
	_, err = repo.Update(ctx, second.ID, entity.UserUpdate{GoogleID: entity.Ptr("g-1")})
	assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)

	unchanged, err := repo.FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Nil(t, unchanged.GoogleID)
}

func TestUserRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewStore())
	user := newUser("upd@example.com")
	user.RefreshTokenHash = entity.Ptr("h1")
	require.NoError(t, repo.Create(ctx, user))

	updated, err := repo.Update(ctx, user.ID, entity.UserUpdate{
		Role:                  entity.Ptr(entity.RoleAdmin),
		ClearRefreshTokenHash: true,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, updated.Role)
	assert.Nil(t, updated.RefreshTokenHash)

	_, err = repo.Update(ctx, uuid.New(), entity.UserUpdate{FirstName: entity.Ptr("x")})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_FindByGoogleID(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewStore())
	user := newUser("sub@example.com")
	user.GoogleID = entity.Ptr("google-sub-1")
	require.NoError(t, repo.Create(ctx, user))
	require.NoError(t, repo.Create(ctx, newUser("plain@example.com")))

	found, err := repo.FindByGoogleID(ctx, "google-sub-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByGoogleID(ctx, "google-sub-2")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	_, err = repo.FindByGoogleID(ctx, "")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_UpdateIfActive(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewStore())
	user := newUser("toggle@example.com")
	user.RefreshTokenHash = entity.Ptr("h1")
	require.NoError(t, repo.Create(ctx, user))

	deactivate := entity.UserUpdate{IsActive: entity.Ptr(false), ClearRefreshTokenHash: true}

	updated, swapped, err := repo.UpdateIfActive(ctx, user.ID, false, deactivate)
	require.NoError(t, err)
	assert.False(t, swapped)
	assert.Nil(t, updated)

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, found.IsActive)
	assert.Equal(t, "h1", *found.RefreshTokenHash)

	updated, swapped, err = repo.UpdateIfActive(ctx, user.ID, true, deactivate)
	require.NoError(t, err)
	assert.True(t, swapped)
	assert.False(t, updated.IsActive)
	assert.Nil(t, updated.RefreshTokenHash)

	_, _, err = repo.UpdateIfActive(ctx, uuid.New(), true, deactivate)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_CompareAndSwapRefreshTokenHash(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewStore())
	user := newUser("cas@example.com")
	user.RefreshTokenHash = entity.Ptr("h1")
	require.NoError(t, repo.Create(ctx, user))

	swapped, err := repo.CompareAndSwapRefreshTokenHash(ctx, user.ID, "stale", "h2")
	require.NoError(t, err)
	assert.False(t, swapped)

	swapped, err = repo.CompareAndSwapRefreshTokenHash(ctx, user.ID, "h1", "h2")
	require.NoError(t, err)
	assert.True(t, swapped)

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "h2", *found.RefreshTokenHash)
}

func TestUserRepository_CompareAndSwapIsExclusive(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewStore())
	user := newUser("race@example.com")
	user.RefreshTokenHash = entity.Ptr("h0")
	require.NoError(t, repo.Create(ctx, user))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.CompareAndSwapRefreshTokenHash(ctx, user.ID, "h0", uuid.NewString())
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestUserRepository_ConsumeVerificationToken(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewStore())
	user := newUser("verify@example.com")
	user.EmailVerificationToken = entity.Ptr("tok")
	require.NoError(t, repo.Create(ctx, user))

	ok, err := repo.ConsumeVerificationToken(ctx, user.ID, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.ConsumeVerificationToken(ctx, user.ID, "tok")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ConsumeVerificationToken(ctx, user.ID, "tok")
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, found.IsEmailVerified)
	assert.Nil(t, found.EmailVerificationToken)
	assert.Nil(t, found.EmailVerificationExpires)
}

func TestLoginHistoryRepository_Create(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	history := NewLoginHistoryRepository(store)
	tm := NewTransactionManager(store)

	userID := uuid.New()
	require.NoError(t, history.Create(ctx, &entity.LoginHistoryEntry{UserID: userID, Action: entity.AuditRegister}))
	require.NoError(t, tm.Execute(ctx, func(f repository.RepositoryFactory) error {
		return f.LoginHistoryRepo().Create(ctx, &entity.LoginHistoryEntry{UserID: userID, Action: entity.AuditLoginSuccess})
	}))

	entries := history.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, entity.AuditRegister, entries[0].Action)
	assert.Equal(t, entity.AuditLoginSuccess, entries[1].Action)
	assert.NotEqual(t, uuid.Nil, entries[1].ID)
	assert.False(t, entries[1].CreatedAt.IsZero())
}
