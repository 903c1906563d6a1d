// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"context"
	"runtime"

	"authbase/config"
	"authbase/internal/domain/service"
	"authbase/internal/errors"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
// Every hash and compare holds one slot of a weighted semaphore, so at most `workers`
// bcrypt computations run at once regardless of how many requests are in flight.
type bcryptHasher struct {
	cost int
	pool *semaphore.Weighted
}

// NewBcryptHasher builds the hasher from the auth configuration.
func NewBcryptHasher(cfg *config.Config) (service.PasswordHasher, error) {
	cost, workers := bcrypt.DefaultCost, 0
	if cfg != nil && cfg.Auth != nil {
		cost, workers = cfg.Auth.BcryptCost, cfg.Auth.HasherWorkers
	}

	return NewBcryptHasherWithCost(cost, workers)
}

// NewBcryptHasherWithCost creates a hasher with an explicit cost and pool size (0 means GOMAXPROCS).
func NewBcryptHasherWithCost(cost, workers int) (service.PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &bcryptHasher{
		cost: cost,
		pool: semaphore.NewWeighted(int64(workers)),
	}, nil
}

// Hash generates a salted hash from a plaintext secret using bcrypt.
func (h *bcryptHasher) Hash(ctx context.Context, secret string) (string, error) {
	if err := h.pool.Acquire(ctx, 1); err != nil {
		return "", errors.Wrap(err, "waiting for hasher slot")
	}
	defer h.pool.Release(1)

	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "bcrypt hash")
	}

	return string(digest), nil
}

// Check compares a plaintext secret with a bcrypt digest.
func (h *bcryptHasher) Check(ctx context.Context, secret, digest string) bool {
	if digest == "" {
		return false
	}
	if err := h.pool.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.pool.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
