package service

import (
	"errors"
	"time"

	"authbase/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrInvalidToken is returned for any token that fails signature, algorithm, claim or expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// TokenKind selects the signing secret and lifetime of a token.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Claims are the verified contents of a signed token.
type Claims struct {
	UserID    uuid.UUID
	Email     string
	Role      entity.Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is the session material returned to clients.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenService signs and verifies access and refresh tokens. It never touches storage.
type TokenService interface {
	// IssuePair signs a fresh access and refresh token for the user.
	IssuePair(userID uuid.UUID, email string, role entity.Role) (*TokenPair, error)

	// Verify checks signature and expiry of a token of the given kind.
	Verify(token string, kind TokenKind) (*Claims, error)
}
