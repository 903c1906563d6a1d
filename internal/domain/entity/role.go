// Package entity contains the core business objects of the project.
package entity

import "strings"

// Role represents the authorization role of a user.
type Role string

const (
	// RoleAdmin can manage other accounts.
	RoleAdmin Role = "ADMIN"
	// RoleUser is the default role of every new account.
	RoleUser Role = "USER"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// ParseRole converts an external value (any case) into a Role.
func ParseRole(s string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))

	return role, role.IsValid()
}

// Provider identifies the identity provider that created an account.
type Provider string

const (
	ProviderLocal  Provider = "LOCAL"
	ProviderGoogle Provider = "GOOGLE"
)

// String returns the string representation of the Provider.
func (p Provider) String() string {
	return string(p)
}
