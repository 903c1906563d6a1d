// Package google verifies Google Sign-In ID tokens.
package google

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"authbase/config"
	"authbase/internal/domain/entity"
	domainerrors "authbase/internal/domain/errors"
	"authbase/internal/domain/service"

	"github.com/pkg/errors"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

const certFetchTimeout = 10 * time.Second

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// payloadValidator is the subset of *idtoken.Validator used here.
type payloadValidator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

// AuthServiceImpl implements service.OAuthAuthService on top of Google's published signing keys.
type AuthServiceImpl struct {
	clientID  string
	validator payloadValidator
	logger    *slog.Logger
}

// NewAuthService builds the verifier once at start. The validator fetches and caches Google's certificates.
func NewAuthService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.OAuthAuthService, error) {
	clientID := ""
	if cfg.GoogleOAuth != nil {
		clientID = cfg.GoogleOAuth.ClientID
	}
	if clientID == "" {
		logger.Warn("Google client id not configured, every Google sign-in will be rejected")
	}

	// Certificates are public; a plain client avoids looking up application default credentials.
	validator, err := idtoken.NewValidator(ctx, option.WithHTTPClient(&http.Client{Timeout: certFetchTimeout}))
	if err != nil {
		return nil, errors.Wrap(err, "create google id token validator")
	}

	return newAuthService(clientID, validator, logger), nil
}

func newAuthService(clientID string, validator payloadValidator, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		clientID:  clientID,
		validator: validator,
		logger:    logger,
	}
}

// VerifyIDToken validates signature, audience, expiry and issuer, then extracts the identity.
// Every failure is reported as ErrInvalidExternalToken; the reason is only logged.
func (s *AuthServiceImpl) VerifyIDToken(ctx context.Context, idToken string) (*service.OAuthUser, error) {
	if s.clientID == "" || strings.TrimSpace(idToken) == "" {
		return nil, s.reject(ctx, errors.New("missing client id or token"))
	}

	payload, err := s.validator.Validate(ctx, idToken, s.clientID)
	if err != nil {
		return nil, s.reject(ctx, err)
	}

	if !isGoogleIssuer(payload.Issuer) {
		return nil, s.reject(ctx, errors.Errorf("unexpected issuer %q", payload.Issuer))
	}

	email := stringClaim(payload.Claims, "email")
	if payload.Subject == "" || email == "" {
		return nil, s.reject(ctx, errors.New("token carries no subject or email"))
	}

	// Google omits email_verified only for legacy tokens; an explicit false is never trusted.
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, s.reject(ctx, errors.New("google reports the email as unverified"))
	}

	return &service.OAuthUser{
		ID:         payload.Subject,
		Email:      email,
		GivenName:  stringClaim(payload.Claims, "given_name"),
		FamilyName: stringClaim(payload.Claims, "family_name"),
		AvatarURL:  stringClaim(payload.Claims, "picture"),
		Provider:   entity.ProviderGoogle,
	}, nil
}

// GetProvider returns the OAuth provider type
func (s *AuthServiceImpl) GetProvider() entity.Provider {
	return entity.ProviderGoogle
}

func (s *AuthServiceImpl) reject(ctx context.Context, cause error) error {
	s.logger.WarnContext(ctx, "Google ID token rejected", slog.Any("error", cause))

	return errors.Wrap(domainerrors.ErrInvalidExternalToken, cause.Error())
}

func isGoogleIssuer(iss string) bool {
	return slices.Contains(googleIssuers, iss)
}

func stringClaim(claims map[string]any, key string) string {
	v, _ := claims[key].(string)

	return v
}
