package middleware

import (
	"log/slog"
	"strings"
	"sync"

	deliverycontext "authbase/internal/delivery/context"
	"authbase/internal/domain/entity"
	domainerrors "authbase/internal/domain/errors"
	"authbase/internal/domain/service"
	"authbase/internal/errors"

	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

// PolicyKind is the access requirement attached to a route.
type PolicyKind int

const (
	// PolicyPublic needs no token.
	PolicyPublic PolicyKind = iota
	// PolicyAuthenticated needs a valid access token.
	PolicyAuthenticated
	// PolicyRefreshToken needs a valid refresh token; the raw token is kept on the principal.
	PolicyRefreshToken
	// PolicyRoleRequired needs a valid access token carrying a specific role.
	PolicyRoleRequired
)

// AccessPolicy tags a single route.
type AccessPolicy struct {
	Kind PolicyKind
	Role entity.Role
}

var (
	Public        = AccessPolicy{Kind: PolicyPublic}
	Authenticated = AccessPolicy{Kind: PolicyAuthenticated}
	RefreshToken  = AccessPolicy{Kind: PolicyRefreshToken}
)

// RoleRequired returns the policy admitting only callers with role.
func RoleRequired(role entity.Role) AccessPolicy {
	return AccessPolicy{Kind: PolicyRoleRequired, Role: role}
}

// AccessPolicyMiddleware evaluates the policy registered for the matched route.
// It must run after routing so that c.Path() is the route template.
type AccessPolicyMiddleware struct {
	tokens service.TokenService
	logger *slog.Logger

	mu       sync.RWMutex
	policies map[string]AccessPolicy
}

// NewAccessPolicyMiddleware is the constructor for AccessPolicyMiddleware.
func NewAccessPolicyMiddleware(tokens service.TokenService, logger *slog.Logger) *AccessPolicyMiddleware {
	return &AccessPolicyMiddleware{
		tokens:   tokens,
		logger:   logger,
		policies: make(map[string]AccessPolicy),
	}
}

// Register attaches policy to the route identified by method and path template.
func (m *AccessPolicyMiddleware) Register(method, path string, policy AccessPolicy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[routeKey(method, path)] = policy
}

func (m *AccessPolicyMiddleware) lookup(method, path string) (AccessPolicy, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	policy, ok := m.policies[routeKey(method, path)]

	return policy, ok
}

// Enforce is the echo middleware applying the registered policies.
func (m *AccessPolicyMiddleware) Enforce(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		policy, ok := m.lookup(c.Request().Method, c.Path())
		if !ok {
			// Unmatched routes fall through to echo's 404/405 handlers.
			return next(c)
		}
		if policy.Kind == PolicyPublic {
			return next(c)
		}

		kind := service.TokenKindAccess
		denied := domainerrors.ErrUnauthorized
		if policy.Kind == PolicyRefreshToken {
			kind = service.TokenKindRefresh
			denied = domainerrors.ErrRefreshDenied
		}

		token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return errors.Wrap(denied, "missing bearer token")
		}

		claims, err := m.tokens.Verify(token, kind)
		if err != nil {
			return errors.Wrap(denied, "bearer token rejected")
		}

		principal := &deliverycontext.Principal{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}
		if policy.Kind == PolicyRefreshToken {
			principal.Token = token
		}
		deliverycontext.SetPrincipal(c, principal)

		ctx := c.Request().Context()
		reqLogger := deliverycontext.GetLoggerOrDefault(ctx, m.logger).With(slog.String("user_id", claims.UserID.String()))
		c.SetRequest(c.Request().WithContext(deliverycontext.WithLogger(ctx, reqLogger)))

		if policy.Kind == PolicyRoleRequired && claims.Role != policy.Role {
			reqLogger.Warn("Role check failed", slog.String("required", policy.Role.String()), slog.String("role", claims.Role.String()))

			return errors.Wrap(domainerrors.ErrForbidden, "role required: "+policy.Role.String())
		}

		return next(c)
	}
}

func bearerToken(header string) (string, bool) {
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])

	return token, token != ""
}

func routeKey(method, path string) string {
	return method + " " + path
}
