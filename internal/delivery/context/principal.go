package context

import (
	"authbase/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// KeyPrincipal is the echo.Context key of the authenticated caller.
const KeyPrincipal ContextKey = "principal"

// Principal is the identity proven by the bearer token of a request.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   entity.Role
	// Token is the raw bearer token; only kept for refresh-token routes.
	Token string
}

// SetPrincipal stores the authenticated caller on the echo.Context.
func SetPrincipal(c echo.Context, p *Principal) {
	c.Set(string(KeyPrincipal), p)
}

// GetPrincipal returns the authenticated caller, if the access policy resolved one.
func GetPrincipal(c echo.Context) (*Principal, bool) {
	p, ok := c.Get(string(KeyPrincipal)).(*Principal)

	return p, ok && p != nil
}
