package service

import (
	"context"

	"authbase/internal/domain/entity"
)

// VerificationNotifier dispatches verification links. Send returns immediately;
// delivery failures are logged by the implementation and never reach the caller.
type VerificationNotifier interface {
	SendVerification(ctx context.Context, user *entity.User, token string)
}

// AuditLog appends login history entries without blocking or failing the caller.
type AuditLog interface {
	Record(ctx context.Context, entry *entity.LoginHistoryEntry)
}

// ResendThrottle limits how often a verification link can be re-sent to one address.
type ResendThrottle interface {
	// Allow reports whether a resend for email may proceed now.
	Allow(ctx context.Context, email string) (bool, error)
}

// Metric results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// AuthMetrics counts authentication outcomes.
type AuthMetrics interface {
	LoginAttempt(result string, provider entity.Provider)
	Registered()
	LoggedOut()
	EmailVerification(result string)
	TokenRefresh(result string)
}
