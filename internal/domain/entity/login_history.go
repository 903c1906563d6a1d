package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction enumerates the authentication events kept in the login history.
type AuditAction string

const (
	AuditRegister           AuditAction = "REGISTER"
	AuditLoginSuccess       AuditAction = "LOGIN_SUCCESS"
	AuditLoginFailed        AuditAction = "LOGIN_FAILED"
	AuditGoogleRegister     AuditAction = "GOOGLE_REGISTER"
	AuditGoogleLoginSuccess AuditAction = "GOOGLE_LOGIN_SUCCESS"
	AuditGoogleLoginFailed  AuditAction = "GOOGLE_LOGIN_FAILED"
	AuditLogout             AuditAction = "LOGOUT"
	AuditEmailVerified      AuditAction = "EMAIL_VERIFIED"
	AuditTokenRefresh       AuditAction = "TOKEN_REFRESH"
)

// String returns the string representation of the AuditAction.
func (a AuditAction) String() string {
	return string(a)
}

// LoginHistoryEntry is an append-only audit fact. UserID is a weak reference:
// the entry outlives any later change to the user.
type LoginHistoryEntry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Action    AuditAction
	IP        string
	UserAgent string
	Provider  Provider
	Details   string
	CreatedAt time.Time
}
