package impl

import (
	"context"
	"log/slog"
	"time"

	"authbase/config"
	deliverycontext "authbase/internal/delivery/context"
	"authbase/internal/domain/entity"
	domainerrors "authbase/internal/domain/errors"
	"authbase/internal/domain/repository"
	"authbase/internal/domain/service"
	"authbase/internal/usecase"
	"authbase/internal/util"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	verificationTokenBytes = 32
	defaultVerificationTTL = 24 * time.Hour
)

type emailVerificationManager struct {
	store    usecase.CredentialStore
	notifier service.VerificationNotifier
	throttle service.ResendThrottle
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// EmailVerificationParams holds dependencies for the verification manager, injected by Fx.
type EmailVerificationParams struct {
	fx.In

	Store    usecase.CredentialStore
	Notifier service.VerificationNotifier
	Throttle service.ResendThrottle
	Config   *config.Config
	Logger   *slog.Logger
}

// NewEmailVerificationManager is the constructor for emailVerificationManager.
func NewEmailVerificationManager(params EmailVerificationParams) usecase.EmailVerificationManager {
	ttl := defaultVerificationTTL
	if params.Config != nil && params.Config.Auth != nil && params.Config.Auth.VerificationTTL > 0 {
		ttl = params.Config.Auth.VerificationTTL
	}

	return &emailVerificationManager{
		store:    params.Store,
		notifier: params.Notifier,
		throttle: params.Throttle,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   params.Logger,
	}
}

func (m *emailVerificationManager) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, m.logger)
}

// NewToken returns 32 random bytes hex encoded and the expiry measured from now.
func (m *emailVerificationManager) NewToken() (string, time.Time, error) {
	token, err := util.RandomHex(verificationTokenBytes)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to generate verification token")
	}

	return token, m.now().Add(m.ttl), nil
}

// Issue stores a fresh token on the user, overwriting any prior one.
func (m *emailVerificationManager) Issue(ctx context.Context, user *entity.User) (string, error) {
	token, expires, err := m.NewToken()
	if err != nil {
		return "", err
	}

	if _, err := m.store.Update(ctx, user.ID, entity.UserUpdate{
		EmailVerificationToken:   &token,
		EmailVerificationExpires: &expires,
	}); err != nil {
		return "", errors.Wrap(err, "failed to store verification token")
	}

	return token, nil
}

// Verify consumes token. The conditional update keyed on the token makes a replay or a
// racing second verify fail exactly like an unknown token.
func (m *emailVerificationManager) Verify(ctx context.Context, token string) (*entity.User, error) {
	user, err := m.store.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrInvalidVerificationToken, "verification token not found")
		}

		return nil, errors.Wrap(err, "failed to find verification token")
	}

	if user.VerificationExpired(m.now()) {
		return nil, errors.Wrap(domainerrors.ErrVerificationTokenExpired, "verification token expired")
	}

	consumed, err := m.store.ConsumeVerificationToken(ctx, user.ID, token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to consume verification token")
	}
	if !consumed {
		return nil, errors.Wrap(domainerrors.ErrInvalidVerificationToken, "verification token already consumed")
	}

	user.IsEmailVerified = true
	user.EmailVerificationToken = nil
	user.EmailVerificationExpires = nil

	return user, nil
}

// Resend reissues the token and dispatches the mail. Unknown and throttled addresses
// return nil so the caller cannot distinguish them from a real send.
func (m *emailVerificationManager) Resend(ctx context.Context, email string) error {
	user, err := m.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			m.log(ctx).Debug("Resend requested for unknown email")

			return nil
		}

		return errors.Wrap(err, "failed to find user for resend")
	}

	if user.IsEmailVerified {
		return errors.Wrap(domainerrors.ErrEmailAlreadyVerified, "resend rejected")
	}

	allowed, err := m.throttle.Allow(ctx, email)
	if err != nil {
		// Fail open: a cache outage must not block verification.
		m.log(ctx).Warn("Resend throttle unavailable", slog.Any("error", err))
		allowed = true
	}
	if !allowed {
		m.log(ctx).Info("Resend throttled", slog.Any("userID", user.ID))

		return nil
	}

	token, err := m.Issue(ctx, user)
	if err != nil {
		return err
	}

	m.notifier.SendVerification(ctx, user, token)

	return nil
}
