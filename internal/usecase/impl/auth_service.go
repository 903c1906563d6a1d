package impl

import (
	"context"
	"log/slog"
	"sync"
	"time"

	deliverycontext "authbase/internal/delivery/context"
	"authbase/internal/domain/entity"
	domainerrors "authbase/internal/domain/errors"
	"authbase/internal/domain/repository"
	"authbase/internal/domain/service"
	"authbase/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// dummyPassword is hashed once and checked against when the account has no password,
// so unknown emails cost as much as wrong passwords.
const dummyPassword = "authbase-timing-equaliser"

// authService implements the AuthUsecase interface.
type authService struct {
	store        usecase.CredentialStore
	verification usecase.EmailVerificationManager
	refresh      usecase.RefreshTokenManager
	identities   usecase.IdentityResolver
	hasher       service.PasswordHasher
	notifier     service.VerificationNotifier
	audit        service.AuditLog
	metrics      service.AuthMetrics
	now          func() time.Time
	logger       *slog.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	Store        usecase.CredentialStore
	Verification usecase.EmailVerificationManager
	Refresh      usecase.RefreshTokenManager
	Identities   usecase.IdentityResolver
	Hasher       service.PasswordHasher
	Notifier     service.VerificationNotifier
	Audit        service.AuditLog
	Metrics      service.AuthMetrics
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		store:        params.Store,
		verification: params.Verification,
		refresh:      params.Refresh,
		identities:   params.Identities,
		hasher:       params.Hasher,
		notifier:     params.Notifier,
		audit:        params.Audit,
		metrics:      params.Metrics,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *authService) record(ctx context.Context, userID uuid.UUID, action entity.AuditAction, provider entity.Provider, meta usecase.RequestMeta, details string) {
	srv.audit.Record(ctx, &entity.LoginHistoryEntry{
		UserID:    userID,
		Action:    action,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Provider:  provider,
		Details:   details,
		CreatedAt: srv.now(),
	})
}

// Register creates an unverified local account and sends the verification mail in the background.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput, meta usecase.RequestMeta) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	if err := srv.store.EnsureEmailAvailable(ctx, input.Email); err != nil {
		return nil, err
	}

	digest, err := srv.hasher.Hash(ctx, input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to hash password during registration")
	}

	token, expires, err := srv.verification.NewToken()
	if err != nil {
		return nil, err
	}

	user, err := srv.store.Register(ctx, usecase.NewCredentials{
		Email:               input.Email,
		PasswordDigest:      digest,
		FirstName:           input.FirstName,
		LastName:            input.LastName,
		VerificationToken:   token,
		VerificationExpires: expires,
	})
	if err != nil {
		return nil, err
	}

	srv.notifier.SendVerification(ctx, user, token)
	srv.record(ctx, user.ID, entity.AuditRegister, entity.ProviderLocal, meta, "")
	srv.metrics.Registered()

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", user.ID))

	return &usecase.RegisterOutput{
		Message: usecase.MessageRegistered,
		UserID:  user.ID,
	}, nil
}

// Login checks the password and opens a session. Unknown email and wrong password fail identically.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput, meta usecase.RequestMeta) (*usecase.AuthOutput, error) {
	srv.log(ctx).Debug("Starting user login", slog.String("email", input.Email))

	user, err := srv.store.FindByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to load login user")
	}

	if user == nil || !user.HasPassword() {
		srv.hasher.Check(ctx, input.Password, srv.dummyHash(ctx))
		srv.metrics.LoginAttempt(service.ResultFailure, entity.ProviderLocal)
		srv.log(ctx).Warn("Login failed", slog.String("email", input.Email), slog.String("reason", "unknown account"))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	if !srv.hasher.Check(ctx, input.Password, *user.PasswordHash) {
		return nil, srv.loginFailed(ctx, user, meta, "Invalid password", domainerrors.ErrInvalidCredentials)
	}
	if !user.IsEmailVerified {
		return nil, srv.loginFailed(ctx, user, meta, "Email not verified", domainerrors.ErrEmailNotVerified)
	}
	if !user.IsActive {
		return nil, srv.loginFailed(ctx, user, meta, "Account deactivated", domainerrors.ErrAccountDeactivated)
	}

	pair, loggedIn, err := srv.refresh.Issue(ctx, user, srv.loginStamp(meta))
	if err != nil {
		srv.log(ctx).Error("Failed to open session", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, err
	}

	srv.record(ctx, loggedIn.ID, entity.AuditLoginSuccess, entity.ProviderLocal, meta, "")
	srv.metrics.LoginAttempt(service.ResultSuccess, entity.ProviderLocal)
	srv.log(ctx).Debug("User logged in successfully", slog.Any("userID", loggedIn.ID))

	return authOutput(loggedIn, pair), nil
}

func (srv *authService) loginFailed(ctx context.Context, user *entity.User, meta usecase.RequestMeta, reason string, cause *domainerrors.BaseError) error {
	srv.record(ctx, user.ID, entity.AuditLoginFailed, entity.ProviderLocal, meta, reason)
	srv.metrics.LoginAttempt(service.ResultFailure, entity.ProviderLocal)
	srv.log(ctx).Warn("Login failed", slog.Any("userID", user.ID), slog.String("reason", reason))

	return errors.Wrap(cause, "login failed")
}

// dummyHash lazily computes a digest used to equalise timing for accounts without a password.
func (srv *authService) dummyHash(ctx context.Context) string {
	srv.dummyOnce.Do(func() {
		digest, err := srv.hasher.Hash(context.WithoutCancel(ctx), dummyPassword)
		if err != nil {
			srv.log(ctx).Warn("Failed to prepare timing digest", slog.Any("error", err))

			return
		}
		srv.dummyDigest = digest
	})

	return srv.dummyDigest
}

func (srv *authService) loginStamp(meta usecase.RequestMeta) entity.UserUpdate {
	update := entity.UserUpdate{LastLoginAt: entity.Ptr(srv.now())}
	if meta.IP != "" {
		update.LastLoginIP = entity.Ptr(meta.IP)
	}

	return update
}

// GoogleAuth logs in with a Google ID token, creating or linking the account as needed.
func (srv *authService) GoogleAuth(ctx context.Context, input *usecase.GoogleAuthInput, meta usecase.RequestMeta) (*usecase.AuthOutput, error) {
	srv.log(ctx).Info("Handling Google sign-in")

	identity, err := srv.identities.Verify(ctx, input.Token)
	if err != nil {
		srv.metrics.LoginAttempt(service.ResultFailure, entity.ProviderGoogle)
		srv.log(ctx).Warn("Google login failed",
			slog.String("action", entity.AuditGoogleLoginFailed.String()),
			slog.String("ip", meta.IP),
			slog.Any("error", err),
		)

		return nil, errors.Wrap(domainerrors.ErrInvalidExternalToken, "google login failed")
	}

	user, created, err := srv.identities.ResolveOrCreateUser(ctx, identity)
	if err != nil {
		srv.metrics.LoginAttempt(service.ResultFailure, entity.ProviderGoogle)

		return nil, err
	}

	if !user.IsActive {
		srv.record(ctx, user.ID, entity.AuditGoogleLoginFailed, entity.ProviderGoogle, meta, "Account deactivated")
		srv.metrics.LoginAttempt(service.ResultFailure, entity.ProviderGoogle)

		return nil, errors.Wrap(domainerrors.ErrAccountDeactivated, "google login failed")
	}

	pair, user, err := srv.refresh.Issue(ctx, user, srv.loginStamp(meta))
	if err != nil {
		return nil, err
	}

	action := entity.AuditGoogleLoginSuccess
	if created {
		action = entity.AuditGoogleRegister
		srv.metrics.Registered()
	}
	srv.record(ctx, user.ID, action, entity.ProviderGoogle, meta, "")
	srv.metrics.LoginAttempt(service.ResultSuccess, entity.ProviderGoogle)

	return authOutput(user, pair), nil
}

// VerifyEmail consumes a verification token.
func (srv *authService) VerifyEmail(ctx context.Context, token string, meta usecase.RequestMeta) (*usecase.MessageOutput, error) {
	user, err := srv.verification.Verify(ctx, token)
	if err != nil {
		srv.metrics.EmailVerification(service.ResultFailure)
		srv.log(ctx).Warn("Email verification failed", slog.Any("error", err))

		return nil, err
	}

	srv.record(ctx, user.ID, entity.AuditEmailVerified, user.Provider, meta, "")
	srv.metrics.EmailVerification(service.ResultSuccess)

	return &usecase.MessageOutput{Message: usecase.MessageEmailVerified}, nil
}

// ResendVerification always answers with the same message unless the address is already verified.
func (srv *authService) ResendVerification(ctx context.Context, email string) (*usecase.MessageOutput, error) {
	if err := srv.verification.Resend(ctx, email); err != nil {
		if !errors.Is(err, domainerrors.ErrEmailAlreadyVerified) {
			srv.log(ctx).Error("Failed to resend verification", slog.Any("error", err))
		}

		return nil, err
	}

	return &usecase.MessageOutput{Message: usecase.MessageVerificationResent}, nil
}

// RefreshTokens rotates the session of userID.
func (srv *authService) RefreshTokens(ctx context.Context, userID uuid.UUID, refreshToken string, meta usecase.RequestMeta) (*service.TokenPair, error) {
	pair, user, err := srv.refresh.Rotate(ctx, userID, refreshToken)
	if err != nil {
		srv.metrics.TokenRefresh(service.ResultFailure)

		return nil, err
	}

	srv.record(ctx, user.ID, entity.AuditTokenRefresh, user.Provider, meta, "")
	srv.metrics.TokenRefresh(service.ResultSuccess)

	return pair, nil
}

// Logout revokes every refresh token of the user.
func (srv *authService) Logout(ctx context.Context, userID uuid.UUID, meta usecase.RequestMeta) (*usecase.MessageOutput, error) {
	if err := srv.refresh.Revoke(ctx, userID); err != nil {
		return nil, err
	}

	srv.record(ctx, userID, entity.AuditLogout, "", meta, "")
	srv.metrics.LoggedOut()
	srv.log(ctx).Info("Successfully logged out", slog.Any("userID", userID))

	return &usecase.MessageOutput{Message: usecase.MessageLoggedOut}, nil
}

// GetProfile returns the non-secret projection of the user.
func (srv *authService) GetProfile(ctx context.Context, userID uuid.UUID) (*usecase.UserProfile, error) {
	user, err := srv.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrUserNotFound, "get profile")
		}

		return nil, errors.Wrap(err, "failed to load profile")
	}

	return usecase.NewUserProfile(user), nil
}

func authOutput(user *entity.User, pair *service.TokenPair) *usecase.AuthOutput {
	return &usecase.AuthOutput{
		User:         usecase.NewUserProfile(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
}
