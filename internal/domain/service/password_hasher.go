// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import "context"

// PasswordHasher defines the interface for secret hashing and verification.
// Implementations are CPU-bound and must bound their own concurrency.
type PasswordHasher interface {
	// Hash generates a salted adaptive digest from a plaintext secret.
	Hash(ctx context.Context, secret string) (string, error)

	// Check compares a plaintext secret with a digest in constant time.
	// A malformed digest or a cancelled context yields false.
	Check(ctx context.Context, secret, digest string) bool
}
