// Package bootstrap brings up the database and Redis for the rwid commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"rwid/internal/cache"
	"rwid/internal/config"
	"rwid/internal/database"
	"rwid/internal/middleware"
	"rwid/internal/models"
	"rwid/internal/seed"
	"rwid/internal/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedCatalog writes the built-in platform catalog on start.
	SeedCatalog bool
}

// InitRuntime connects to DB and Redis and optionally seeds the catalog.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	owner, err := EnsureDevOwner(ctx, cfg, db)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development owner: %w", err)
	}

	if opts.SeedCatalog {
		catalog, err := seed.DefaultCatalog()
		if err != nil {
			return nil, nil, err
		}
		var seedOpts seed.Options
		if owner != nil {
			seedOpts.OwnerUID = owner.UID
		}
		if _, err := seed.NewSeeder(db, seedOpts).Run(ctx, catalog); err != nil {
			return nil, nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
	}

	return db, r, nil
}

// EnsureDevOwner creates or refreshes the development admin account when
// APP_ENV is development and DEV_BOOTSTRAP_OWNER is set. It returns nil
// when bootstrapping is off.
func EnsureDevOwner(ctx context.Context, cfg *config.Config, db *gorm.DB) (*models.Account, error) {
	if cfg == nil || db == nil {
		return nil, nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapOwner {
		return nil, nil
	}

	username := validation.NormalizeUsername(cfg.DevOwnerUsername)
	if username == "" {
		username = "rwid_owner"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevOwnerEmail))
	if email == "" {
		email = "owner@rwid.local"
	}
	if cfg.DevOwnerPassword == "" {
		return nil, errors.New("DEV_OWNER_PASSWORD must be set when DEV_BOOTSTRAP_OWNER is enabled")
	}
	if err := errors.Join(
		validation.ValidateUsername(username),
		validation.ValidateEmail(email),
		validation.ValidatePassword(cfg.DevOwnerPassword, username),
	); err != nil {
		return nil, fmt.Errorf("dev owner: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.DevOwnerPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash owner password: %w", err)
	}

	var owner models.Account
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := tx.Where("username = ?", username).First(&owner).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			owner = models.Account{
				UID:          uuid.NewString(),
				Username:     &username,
				Email:        &email,
				PasswordHash: string(hashedPassword),
				DisplayName:  "Development Owner",
				Provider:     models.ProviderPassword,
				IsAdmin:      true,
			}
			if err := tx.Create(&owner).Error; err != nil {
				return err
			}
		case findErr != nil:
			return findErr
		default:
			updates := map[string]any{
				"is_admin":      true,
				"email":         email,
				"password_hash": string(hashedPassword),
			}
			if err := tx.Model(&owner).Updates(updates).Error; err != nil {
				return err
			}
		}

		profile := models.NewProfileFor(owner.Principal())
		profile.Role = models.RoleOwner
		return tx.Where(models.Profile{UserID: owner.UID}).
			Assign(models.Profile{Role: models.RoleOwner}).
			FirstOrCreate(&profile).Error
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "development owner bootstrap ensured",
		slog.String("uid", owner.UID),
		slog.String("email", email),
	)
	return &owner, nil
}
