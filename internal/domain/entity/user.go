// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity record owned by the credential store.
type User struct {
	ID                       uuid.UUID  // Immutable identifier.
	Email                    string     // Unique, case-sensitive as stored; primary lookup key.
	PasswordHash             *string    // bcrypt digest; nil for accounts created through an external provider.
	FirstName                string     // Given name.
	LastName                 string     // Family name.
	Role                     Role       // Authorization role carried into access tokens.
	Provider                 Provider   // The provider that created the account.
	GoogleID                 *string    // Google subject id once the account is linked.
	AvatarURL                *string    // Optional picture, never overwritten by a later link.
	IsEmailVerified          bool       // True once the email ownership was proven.
	EmailVerificationToken   *string    // Live verification token, unique when present.
	EmailVerificationExpires *time.Time // Expiry of EmailVerificationToken.
	RefreshTokenHash         *string    // Hash of the single live refresh token, never the token itself.
	IsActive                 bool       // False blocks login and refresh.
	LastLoginAt              *time.Time // Time of the last successful login.
	LastLoginIP              *string    // Client address of the last successful login.
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// HasPassword reports whether the account can log in with a local password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// IsGoogleLinked reports whether a Google identity is attached to the account.
func (u *User) IsGoogleLinked() bool {
	return u.GoogleID != nil && *u.GoogleID != ""
}

// VerificationExpired reports whether the stored verification token is past its expiry at now.
func (u *User) VerificationExpired(now time.Time) bool {
	return u.EmailVerificationExpires != nil && now.After(*u.EmailVerificationExpires)
}

// UserUpdate is the single partial-update contract for users. Nil fields are left untouched;
// the Clear flags null out optional columns.
type UserUpdate struct {
	FirstName       *string
	LastName        *string
	Role            *Role
	IsActive        *bool
	IsEmailVerified *bool
	GoogleID        *string
	AvatarURL       *string

	EmailVerificationToken   *string
	EmailVerificationExpires *time.Time

	RefreshTokenHash      *string
	ClearRefreshTokenHash bool

	LastLoginAt *time.Time
	LastLoginIP *string
}

// IsEmpty reports whether the update changes nothing.
func (u UserUpdate) IsEmpty() bool {
	return u == UserUpdate{}
}

// Apply copies the update onto user and stamps UpdatedAt with now.
func (u UserUpdate) Apply(user *User, now time.Time) {
	if u.FirstName != nil {
		user.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		user.LastName = *u.LastName
	}
	if u.Role != nil {
		user.Role = *u.Role
	}
	if u.IsActive != nil {
		user.IsActive = *u.IsActive
	}
	if u.IsEmailVerified != nil {
		user.IsEmailVerified = *u.IsEmailVerified
	}
	if u.GoogleID != nil {
		user.GoogleID = Ptr(*u.GoogleID)
	}
	if u.AvatarURL != nil {
		user.AvatarURL = Ptr(*u.AvatarURL)
	}
	if u.EmailVerificationToken != nil {
		user.EmailVerificationToken = Ptr(*u.EmailVerificationToken)
	}
	if u.EmailVerificationExpires != nil {
		user.EmailVerificationExpires = Ptr(*u.EmailVerificationExpires)
	}
	if u.ClearRefreshTokenHash {
		user.RefreshTokenHash = nil
	} else if u.RefreshTokenHash != nil {
		user.RefreshTokenHash = Ptr(*u.RefreshTokenHash)
	}
	if u.LastLoginAt != nil {
		user.LastLoginAt = Ptr(*u.LastLoginAt)
	}
	if u.LastLoginIP != nil {
		user.LastLoginIP = Ptr(*u.LastLoginIP)
	}
	user.UpdatedAt = now
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = clonePtr(u.PasswordHash)
	c.GoogleID = clonePtr(u.GoogleID)
	c.AvatarURL = clonePtr(u.AvatarURL)
	c.EmailVerificationToken = clonePtr(u.EmailVerificationToken)
	c.EmailVerificationExpires = clonePtr(u.EmailVerificationExpires)
	c.RefreshTokenHash = clonePtr(u.RefreshTokenHash)
	c.LastLoginAt = clonePtr(u.LastLoginAt)
	c.LastLoginIP = clonePtr(u.LastLoginIP)

	return &c
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p

	return &v
}
