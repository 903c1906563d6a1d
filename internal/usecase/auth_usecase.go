// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"authbase/internal/domain/entity"
	"authbase/internal/domain/service"

	"github.com/google/uuid"
)

// User-facing messages returned by the engine.
const (
	MessageRegistered         = "Registration successful. Please check your email to verify your account."
	MessageEmailVerified      = "Email verified successfully"
	MessageLoggedOut          = "Logged out successfully"
	MessageVerificationResent = "If the email exists, a verification link has been sent"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a local account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
}

// GoogleAuthInput carries the Google ID token presented by the client.
type GoogleAuthInput struct {
	Token string
}

// RequestMeta describes the client of a request for the audit trail.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// --- Output DTOs ---

// UserProfile is the non-secret projection of a user returned to clients.
type UserProfile struct {
	ID              uuid.UUID       `json:"id"`
	Email           string          `json:"email"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	Role            entity.Role     `json:"role"`
	Provider        entity.Provider `json:"provider"`
	AvatarURL       *string         `json:"avatarUrl,omitempty"`
	IsEmailVerified bool            `json:"isEmailVerified"`
	IsActive        bool            `json:"isActive"`
	LastLoginAt     *time.Time      `json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// NewUserProfile projects user, dropping password, token and refresh material.
func NewUserProfile(user *entity.User) *UserProfile {
	if user == nil {
		return nil
	}

	return &UserProfile{
		ID:              user.ID,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Role:            user.Role,
		Provider:        user.Provider,
		AvatarURL:       user.AvatarURL,
		IsEmailVerified: user.IsEmailVerified,
		IsActive:        user.IsActive,
		LastLoginAt:     user.LastLoginAt,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}

// RegisterOutput is returned after a successful registration.
type RegisterOutput struct {
	Message string    `json:"message"`
	UserID  uuid.UUID `json:"userId"`
}

// AuthOutput is returned by every successful login.
type AuthOutput struct {
	User         *UserProfile `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// MessageOutput carries a single user-facing message.
type MessageOutput struct {
	Message string `json:"message"`
}

// AuthUsecase is the authentication engine consumed by the delivery layer.
type AuthUsecase interface {
	Register(ctx context.Context, input *RegisterInput, meta RequestMeta) (*RegisterOutput, error)
	Login(ctx context.Context, input *LoginInput, meta RequestMeta) (*AuthOutput, error)
	GoogleAuth(ctx context.Context, input *GoogleAuthInput, meta RequestMeta) (*AuthOutput, error)
	VerifyEmail(ctx context.Context, token string, meta RequestMeta) (*MessageOutput, error)
	ResendVerification(ctx context.Context, email string) (*MessageOutput, error)
	RefreshTokens(ctx context.Context, userID uuid.UUID, refreshToken string, meta RequestMeta) (*service.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID, meta RequestMeta) (*MessageOutput, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
}
