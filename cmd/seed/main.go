// Command seed migrates the schema and upserts the configured seed accounts.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"authbase/config"
	"authbase/internal/domain/entity"
	"authbase/internal/errors"
	"authbase/internal/infra/auth"
	logs "authbase/internal/infra/log"
	"authbase/internal/infra/persistence/model"
	"authbase/internal/infra/persistence/postgres"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const seedTimeout = 2 * time.Minute

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger, err := logs.NewWithWriter(os.Stdout, cfg)
	if err != nil {
		slog.Error("Failed to build logger", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Seed failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Seed completed", slog.Int("users", len(cfg.Seed)))
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := postgres.Open(cfg, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	hasher, err := auth.NewBcryptHasher(cfg)
	if err != nil {
		return err
	}

	for _, seed := range cfg.Seed {
		role, ok := entity.ParseRole(seed.Role)
		if !ok {
			return errors.Errorf("seed user %s has invalid role %q", seed.Email, seed.Role)
		}

		digest, err := hasher.Hash(ctx, seed.Password)
		if err != nil {
			return errors.Wrapf(err, "hash password of %s", seed.Email)
		}

		if err := upsertUser(ctx, db, seed, role, digest); err != nil {
			return err
		}
		logger.Info("Seeded user", slog.String("email", seed.Email), slog.String("role", role.String()))
	}

	return nil
}

// upsertUser creates the account or resets its password, role and flags; seeded accounts are verified.
func upsertUser(ctx context.Context, db *gorm.DB, seed config.SeedUser, role entity.Role, digest string) error {
	user := model.UserModel{
		Email:           seed.Email,
		PasswordHash:    &digest,
		FirstName:       seed.FirstName,
		LastName:        seed.LastName,
		Role:            role.String(),
		Provider:        entity.ProviderLocal.String(),
		IsEmailVerified: true,
		IsActive:        true,
	}

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "first_name", "last_name", "role", "is_email_verified", "is_active", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		return errors.Wrapf(err, "upsert seed user %s", seed.Email)
	}

	return nil
}
