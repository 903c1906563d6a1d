package impl

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"authbase/internal/domain/entity"
	domainerrors "authbase/internal/domain/errors"
	"authbase/internal/domain/repository"
	"authbase/internal/domain/service"
	"authbase/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testPassword = "Secret123!"

func TestAuthService_Register(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	out, err := f.engine.Register(ctx, &usecase.RegisterInput{
		Email:     "new@example.com",
		Password:  testPassword,
		FirstName: "Ada",
		LastName:  "Lovelace",
	}, testMeta)
	require.NoError(t, err)
	assert.Equal(t, usecase.MessageRegistered, out.Message)
	assert.NotEqual(t, uuid.Nil, out.UserID)

	user, err := f.users.FindByID(ctx, out.UserID)
	require.NoError(t, err)
	assert.False(t, user.IsEmailVerified)
	assert.True(t, user.IsActive)
	assert.Equal(t, entity.RoleUser, user.Role)
	assert.Equal(t, entity.ProviderLocal, user.Provider)
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, testPassword, *user.PasswordHash)
	require.NotNil(t, user.EmailVerificationToken)
	assert.Len(t, *user.EmailVerificationToken, 64)
	require.NotNil(t, user.EmailVerificationExpires)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *user.EmailVerificationExpires, time.Minute)

	sent := f.notifier.last(t)
	assert.Equal(t, *user.EmailVerificationToken, sent.Token)
	assert.Equal(t, "new@example.com", sent.Email)

	assert.Equal(t, []entity.AuditAction{entity.AuditRegister}, f.audit.actions())
	assert.Equal(t, 1, f.metrics.get("register"))
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	f := newEngineFixture(t)
	f.register(t, "dup@example.com", testPassword)

	_, err := f.engine.Register(context.Background(), &usecase.RegisterInput{
		Email:     "dup@example.com",
		Password:  "Other123!",
		FirstName: "B",
		LastName:  "C",
	}, testMeta)

	require.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
	assert.Equal(t, domainerrors.KindAlreadyExists, domainerrors.KindOf(err))
	assert.Equal(t, 1, f.notifier.count())
}

func TestAuthService_RegisterLosesInsertRace(t *testing.T) {
	users := &conflictingUserRepo{}
	f := newEngineFixtureOn(t, users, inlineTx{users: users})

	_, err := f.engine.Register(context.Background(), &usecase.RegisterInput{
		Email:     "race@example.com",
		Password:  testPassword,
		FirstName: "R",
		LastName:  "C",
	}, testMeta)

	require.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
	assert.Equal(t, domainerrors.KindAlreadyExists, domainerrors.KindOf(err))
	assert.Equal(t, int32(1), users.creates.Load())
	assert.Zero(t, f.notifier.count())
	assert.Empty(t, f.audit.actions())
}

func TestAuthService_ConcurrentRegisterSingleWinner(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	const attempts = 16
	var (
		wg         sync.WaitGroup
		ok, dup    atomic.Int32
		unexpected atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Register(ctx, &usecase.RegisterInput{
				Email:     "race@example.com",
				Password:  testPassword,
				FirstName: "R",
				LastName:  "C",
			}, testMeta)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domainerrors.ErrUserAlreadyExists):
				dup.Add(1)
			default:
				unexpected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(attempts-1), dup.Load())
	assert.Zero(t, unexpected.Load())
	assert.Equal(t, 1, f.notifier.count())
}

func TestAuthService_LoginFailuresDoNotEnumerate(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	userID := f.registerVerified(t, "known@example.com", testPassword)

	_, unknownErr := f.engine.Login(ctx, &usecase.LoginInput{Email: "ghost@example.com", Password: testPassword}, testMeta)
	_, wrongErr := f.engine.Login(ctx, &usecase.LoginInput{Email: "known@example.com", Password: "Wrong123!"}, testMeta)

	require.ErrorIs(t, unknownErr, domainerrors.ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, domainerrors.ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())

	// Only the existing account gets a LOGIN_FAILED entry.
	last := f.audit.lastEntry(t)
	assert.Equal(t, entity.AuditLoginFailed, last.Action)
	assert.Equal(t, userID, last.UserID)
	assert.Equal(t, "Invalid password", last.Details)
	assert.Equal(t, testMeta.IP, last.IP)
	assert.Equal(t, 2, f.metrics.get("login:failure:LOCAL"))
}

func TestAuthService_LoginRequiresVerifiedEmail(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.register(t, "pending@example.com", testPassword)

	_, err := f.engine.Login(ctx, &usecase.LoginInput{Email: "pending@example.com", Password: testPassword}, testMeta)
	require.ErrorIs(t, err, domainerrors.ErrEmailNotVerified)

	// A wrong password on an unverified account still reports invalid credentials.
	_, err = f.engine.Login(ctx, &usecase.LoginInput{Email: "pending@example.com", Password: "Wrong123!"}, testMeta)
	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	assert.Equal(t, "Invalid password", f.audit.lastEntry(t).Details)
}

func TestAuthService_LoginDeactivated(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	userID := f.registerVerified(t, "off@example.com", testPassword)

	_, err := f.admin.ToggleActive(ctx, userID)
	require.NoError(t, err)

	_, err = f.engine.Login(ctx, &usecase.LoginInput{Email: "off@example.com", Password: testPassword}, testMeta)
	require.ErrorIs(t, err, domainerrors.ErrAccountDeactivated)
	assert.Equal(t, "Account deactivated", f.audit.lastEntry(t).Details)
}

func TestAuthService_LoginSuccess(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	userID := f.registerVerified(t, "ok@example.com", testPassword)

	out := f.login(t, "ok@example.com", testPassword)
	assert.Equal(t, userID, out.User.ID)
	assert.True(t, out.User.IsEmailVerified)
	require.NotNil(t, out.User.LastLoginAt)

	claims, err := f.tokens.Verify(out.AccessToken, service.TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, entity.RoleUser, claims.Role)

	stored, err := f.users.FindByID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshTokenHash)
	assert.NotEqual(t, out.RefreshToken, *stored.RefreshTokenHash)
	require.NotNil(t, stored.LastLoginIP)
	assert.Equal(t, testMeta.IP, *stored.LastLoginIP)

	assert.Equal(t, entity.AuditLoginSuccess, f.audit.lastEntry(t).Action)
	assert.Equal(t, 1, f.metrics.get("login:success:LOCAL"))
}

func TestAuthService_VerifyEmailIsSingleUse(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	userID, token := f.register(t, "verify@example.com", testPassword)

	out, err := f.engine.VerifyEmail(ctx, token, testMeta)
	require.NoError(t, err)
	assert.Equal(t, usecase.MessageEmailVerified, out.Message)

	stored, err := f.users.FindByID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, stored.IsEmailVerified)
	assert.Nil(t, stored.EmailVerificationToken)
	assert.Nil(t, stored.EmailVerificationExpires)

	_, err = f.engine.VerifyEmail(ctx, token, testMeta)
	require.ErrorIs(t, err, domainerrors.ErrInvalidVerificationToken)

	_, err = f.engine.VerifyEmail(ctx, "not-a-token", testMeta)
	require.ErrorIs(t, err, domainerrors.ErrInvalidVerificationToken)

	assert.Equal(t, 1, f.metrics.get("verify:success"))
	assert.Equal(t, 2, f.metrics.get("verify:failure"))
	assert.Contains(t, f.audit.actions(), entity.AuditEmailVerified)
}

func TestAuthService_VerifyEmailConcurrent(t *testing.T) {
	f := newEngineFixture(t)
	_, token := f.register(t, "race@example.com", testPassword)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.engine.VerifyEmail(context.Background(), token, testMeta); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestAuthService_VerifyEmailExpired(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	userID, token := f.register(t, "late@example.com", testPassword)

	_, err := f.users.Update(ctx, userID, entity.UserUpdate{
		EmailVerificationExpires: entity.Ptr(time.Now().Add(-time.Minute)),
	})
	require.NoError(t, err)

	_, err = f.engine.VerifyEmail(ctx, token, testMeta)
	require.ErrorIs(t, err, domainerrors.ErrVerificationTokenExpired)
	assert.Equal(t, domainerrors.KindExpired, domainerrors.KindOf(err))
}

func TestAuthService_ResendVerification(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email gets the generic answer", func(t *testing.T) {
		f := newEngineFixture(t)

		out, err := f.engine.ResendVerification(ctx, "ghost@example.com")
		require.NoError(t, err)
		assert.Equal(t, usecase.MessageVerificationResent, out.Message)
		assert.Equal(t, 0, f.notifier.count())
	})

	t.Run("new token supersedes the old one", func(t *testing.T) {
		f := newEngineFixture(t)
		_, oldToken := f.register(t, "again@example.com", testPassword)
		f.throttle.On("Allow", mock.Anything, "again@example.com").Return(true, nil).Once()

		out, err := f.engine.ResendVerification(ctx, "again@example.com")
		require.NoError(t, err)
		assert.Equal(t, usecase.MessageVerificationResent, out.Message)

		newToken := f.notifier.last(t).Token
		assert.NotEqual(t, oldToken, newToken)

		_, err = f.engine.VerifyEmail(ctx, oldToken, testMeta)
		require.ErrorIs(t, err, domainerrors.ErrInvalidVerificationToken)
		_, err = f.engine.VerifyEmail(ctx, newToken, testMeta)
		require.NoError(t, err)
	})

	t.Run("already verified is reported", func(t *testing.T) {
		f := newEngineFixture(t)
		f.registerVerified(t, "done@example.com", testPassword)

		_, err := f.engine.ResendVerification(ctx, "done@example.com")
		require.ErrorIs(t, err, domainerrors.ErrEmailAlreadyVerified)
	})

	t.Run("throttled resend keeps the current token", func(t *testing.T) {
		f := newEngineFixture(t)
		_, token := f.register(t, "busy@example.com", testPassword)
		f.throttle.On("Allow", mock.Anything, "busy@example.com").Return(false, nil).Once()

		out, err := f.engine.ResendVerification(ctx, "busy@example.com")
		require.NoError(t, err)
		assert.Equal(t, usecase.MessageVerificationResent, out.Message)
		assert.Equal(t, 1, f.notifier.count())

		_, err = f.engine.VerifyEmail(ctx, token, testMeta)
		require.NoError(t, err)
	})

	t.Run("throttle outage fails open", func(t *testing.T) {
		f := newEngineFixture(t)
		f.register(t, "open@example.com", testPassword)
		f.throttle.On("Allow", mock.Anything, "open@example.com").Return(false, assert.AnError).Once()

		_, err := f.engine.ResendVerification(ctx, "open@example.com")
		require.NoError(t, err)
		assert.Equal(t, 2, f.notifier.count())
	})
}

func TestAuthService_RefreshRotation(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	userID := f.registerVerified(t, "rotate@example.com", testPassword)
	tokenA := f.login(t, "rotate@example.com", testPassword).RefreshToken

	pairB, err := f.engine.RefreshTokens(ctx, userID, tokenA, testMeta)
	require.NoError(t, err)
	assert.NotEqual(t, tokenA, pairB.RefreshToken)

	_, err = f.engine.RefreshTokens(ctx, userID, tokenA, testMeta)
	require.ErrorIs(t, err, domainerrors.ErrRefreshDenied)

	pairC, err := f.engine.RefreshTokens(ctx, userID, pairB.RefreshToken, testMeta)
	require.NoError(t, err)
	assert.NotEmpty(t, pairC.AccessToken)

	assert.Equal(t, 2, f.metrics.get("refresh:success"))
	assert.Equal(t, 1, f.metrics.get("refresh:failure"))
	assert.Equal(t, entity.AuditTokenRefresh, f.audit.lastEntry(t).Action)
}

func TestAuthService_RefreshRejections(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	userID := f.registerVerified(t, "reject@example.com", testPassword)
	out := f.login(t, "reject@example.com", testPassword)

	_, err := f.engine.RefreshTokens(ctx, userID, out.AccessToken, testMeta)
	require.ErrorIs(t, err, domainerrors.ErrRefreshDenied, "access token must not refresh")

	_, err = f.engine.RefreshTokens(ctx, uuid.New(), out.RefreshToken, testMeta)
	require.ErrorIs(t, err, domainerrors.ErrRefreshDenied, "subject mismatch")

	_, err = f.users.Update(ctx, userID, entity.UserUpdate{IsActive: entity.Ptr(false)})
	require.NoError(t, err)
	_, err = f.engine.RefreshTokens(ctx, userID, out.RefreshToken, testMeta)
	require.ErrorIs(t, err, domainerrors.ErrRefreshDenied, "inactive user")

	// Rejections leave the stored hash untouched.
	stored, err := f.users.FindByID(ctx, userID)
	require.NoError(t, err)
	assert.NotNil(t, stored.RefreshTokenHash)
}

func TestAuthService_ConcurrentRefreshSingleWinner(t *testing.T) {
	f := newEngineFixture(t)
	userID := f.registerVerified(t, "cas@example.com", testPassword)
	token := f.login(t, "cas@example.com", testPassword).RefreshToken

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.engine.RefreshTokens(context.Background(), userID, token, testMeta); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestAuthService_LogoutRevokesEveryRefreshToken(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	userID := f.registerVerified(t, "bye@example.com", testPassword)
	first := f.login(t, "bye@example.com", testPassword).RefreshToken
	second := f.login(t, "bye@example.com", testPassword).RefreshToken

	out, err := f.engine.Logout(ctx, userID, testMeta)
	require.NoError(t, err)
	assert.Equal(t, usecase.MessageLoggedOut, out.Message)

	for _, token := range []string{first, second} {
		_, err = f.engine.RefreshTokens(ctx, userID, token, testMeta)
		require.ErrorIs(t, err, domainerrors.ErrRefreshDenied)
	}
	assert.Equal(t, 1, f.metrics.get("logout"))
	assert.Contains(t, f.audit.actions(), entity.AuditLogout)

	_, err = f.engine.Logout(ctx, uuid.New(), testMeta)
	require.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func googleIdentity() *service.OAuthUser {
	return &service.OAuthUser{
		ID:        "google-sub-1",
		Email:     "g@example.com",
		AvatarURL: "https://example.com/a.png",
		Provider:  entity.ProviderGoogle,
	}
}

func TestAuthService_GoogleFirstLoginCreatesUser(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.oauth.On("VerifyIDToken", mock.Anything, "id-token").Return(googleIdentity(), nil).Twice()

	first, err := f.engine.GoogleAuth(ctx, &usecase.GoogleAuthInput{Token: "id-token"}, testMeta)
	require.NoError(t, err)
	assert.Equal(t, entity.ProviderGoogle, first.User.Provider)
	assert.True(t, first.User.IsEmailVerified)
	assert.Equal(t, entity.RoleUser, first.User.Role)
	assert.Equal(t, "Google", first.User.FirstName)
	assert.Equal(t, "User", first.User.LastName)
	assert.Equal(t, entity.AuditGoogleRegister, f.audit.lastEntry(t).Action)

	stored, err := f.users.FindByID(ctx, first.User.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasPassword())
	require.NotNil(t, stored.GoogleID)
	assert.Equal(t, "google-sub-1", *stored.GoogleID)

	second, err := f.engine.GoogleAuth(ctx, &usecase.GoogleAuthInput{Token: "id-token"}, testMeta)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, entity.AuditGoogleLoginSuccess, f.audit.lastEntry(t).Action)
	assert.Equal(t, 1, f.metrics.get("register"))
	assert.Equal(t, 2, f.metrics.get("login:success:GOOGLE"))
}

func TestAuthService_GoogleLinksExistingAccount(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	userID, _ := f.register(t, "g@example.com", testPassword)
	_, err := f.users.Update(ctx, userID, entity.UserUpdate{AvatarURL: entity.Ptr("https://example.com/mine.png")})
	require.NoError(t, err)
	f.oauth.On("VerifyIDToken", mock.Anything, "id-token").Return(googleIdentity(), nil).Once()

	out, err := f.engine.GoogleAuth(ctx, &usecase.GoogleAuthInput{Token: "id-token"}, testMeta)
	require.NoError(t, err)
	assert.Equal(t, userID, out.User.ID)
	assert.True(t, out.User.IsEmailVerified)
	assert.Equal(t, entity.ProviderLocal, out.User.Provider)
	require.NotNil(t, out.User.AvatarURL)
	assert.Equal(t, "https://example.com/mine.png", *out.User.AvatarURL)

	stored, err := f.users.FindByID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, stored.GoogleID)
	assert.Equal(t, "google-sub-1", *stored.GoogleID)
	assert.True(t, stored.HasPassword())
}

func TestAuthService_GoogleInvalidToken(t *testing.T) {
	f := newEngineFixture(t)
	f.oauth.On("VerifyIDToken", mock.Anything, "bad").Return(nil, domainerrors.ErrInvalidExternalToken).Once()

	_, err := f.engine.GoogleAuth(context.Background(), &usecase.GoogleAuthInput{Token: "bad"}, testMeta)
	require.ErrorIs(t, err, domainerrors.ErrInvalidExternalToken)
	assert.Empty(t, f.audit.actions())
	assert.Equal(t, 1, f.metrics.get("login:failure:GOOGLE"))
}

func TestAuthService_GoogleDeactivated(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.oauth.On("VerifyIDToken", mock.Anything, "id-token").Return(googleIdentity(), nil).Twice()

	first, err := f.engine.GoogleAuth(ctx, &usecase.GoogleAuthInput{Token: "id-token"}, testMeta)
	require.NoError(t, err)
	_, err = f.admin.ToggleActive(ctx, first.User.ID)
	require.NoError(t, err)

	_, err = f.engine.GoogleAuth(ctx, &usecase.GoogleAuthInput{Token: "id-token"}, testMeta)
	require.ErrorIs(t, err, domainerrors.ErrAccountDeactivated)
	assert.Equal(t, entity.AuditGoogleLoginFailed, f.audit.lastEntry(t).Action)
}

func TestAuthService_GoogleSubjectKeepsAccountWhenEmailChanges(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	renamed := googleIdentity()
	renamed.Email = "renamed@example.com"
	f.oauth.On("VerifyIDToken", mock.Anything, "id-token").Return(googleIdentity(), nil).Once()
	f.oauth.On("VerifyIDToken", mock.Anything, "id-token-renamed").Return(renamed, nil).Once()

	first, err := f.engine.GoogleAuth(ctx, &usecase.GoogleAuthInput{Token: "id-token"}, testMeta)
	require.NoError(t, err)

	second, err := f.engine.GoogleAuth(ctx, &usecase.GoogleAuthInput{Token: "id-token-renamed"}, testMeta)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, "g@example.com", second.User.Email)
	assert.Equal(t, entity.AuditGoogleLoginSuccess, f.audit.lastEntry(t).Action)
	assert.Equal(t, 1, f.metrics.get("register"))

	_, err = f.users.FindByEmail(ctx, "renamed@example.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestAuthService_GoogleConflictIsInvalidToken(t *testing.T) {
	users := &conflictingUserRepo{}
	f := newEngineFixtureOn(t, users, inlineTx{users: users})
	f.oauth.On("VerifyIDToken", mock.Anything, "id-token").Return(googleIdentity(), nil).Once()

	_, err := f.engine.GoogleAuth(context.Background(), &usecase.GoogleAuthInput{Token: "id-token"}, testMeta)

	require.ErrorIs(t, err, domainerrors.ErrInvalidExternalToken)
	assert.NotErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
	assert.Equal(t, domainerrors.KindUnauthorized, domainerrors.KindOf(err))
	assert.Equal(t, int32(2), users.creates.Load(), "the insert is retried once")
	assert.Equal(t, 1, f.metrics.get("login:failure:GOOGLE"))
}

func TestAuthService_GoogleDoesNotLinkDeactivatedAccount(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	userID, _ := f.register(t, "g@example.com", testPassword)
	_, err := f.admin.ToggleActive(ctx, userID)
	require.NoError(t, err)
	f.oauth.On("VerifyIDToken", mock.Anything, "id-token").Return(googleIdentity(), nil).Once()

	_, err = f.engine.GoogleAuth(ctx, &usecase.GoogleAuthInput{Token: "id-token"}, testMeta)
	require.ErrorIs(t, err, domainerrors.ErrAccountDeactivated)

	stored, err := f.users.FindByID(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, stored.GoogleID)
	assert.False(t, stored.IsEmailVerified)
	assert.Equal(t, entity.AuditGoogleLoginFailed, f.audit.lastEntry(t).Action)
}

func TestAuthService_GetProfile(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	userID, _ := f.register(t, "me@example.com", testPassword)

	profile, err := f.engine.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", profile.Email)

	_, err = f.engine.GetProfile(ctx, uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestAuthService_EndToEnd(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	reg, err := f.engine.Register(ctx, &usecase.RegisterInput{
		Email: "flow@example.com", Password: testPassword, FirstName: "Flow", LastName: "Test",
	}, testMeta)
	require.NoError(t, err)

	_, err = f.engine.Login(ctx, &usecase.LoginInput{Email: "flow@example.com", Password: testPassword}, testMeta)
	require.ErrorIs(t, err, domainerrors.ErrEmailNotVerified)

	_, err = f.engine.VerifyEmail(ctx, f.notifier.last(t).Token, testMeta)
	require.NoError(t, err)

	session := f.login(t, "flow@example.com", testPassword)
	assert.Equal(t, reg.UserID, session.User.ID)

	rotated, err := f.engine.RefreshTokens(ctx, reg.UserID, session.RefreshToken, testMeta)
	require.NoError(t, err)

	_, err = f.engine.Logout(ctx, reg.UserID, testMeta)
	require.NoError(t, err)

	_, err = f.engine.RefreshTokens(ctx, reg.UserID, rotated.RefreshToken, testMeta)
	require.ErrorIs(t, err, domainerrors.ErrRefreshDenied)

	assert.Equal(t, []entity.AuditAction{
		entity.AuditRegister,
		entity.AuditLoginFailed,
		entity.AuditEmailVerified,
		entity.AuditLoginSuccess,
		entity.AuditTokenRefresh,
		entity.AuditLogout,
	}, f.audit.actions())
}
