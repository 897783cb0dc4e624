package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rwid/internal/config"
	"rwid/internal/middleware"

	"gorm.io/gorm"
)

// DB_SCHEMA_MODE values.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan is the set of schema steps a given database and config call for.
type SchemaPlan struct {
	Mode        string
	Env         string
	Driver      string
	SQL         bool
	AutoMigrate bool
}

// SchemaStatus is a SchemaPlan plus where each SQL migration stands.
type SchemaStatus struct {
	SchemaPlan
	Migrations []MigrationState
}

// Pending returns the SQL migrations not yet applied.
func (s *SchemaStatus) Pending() []MigrationState {
	var out []MigrationState
	for _, m := range s.Migrations {
		if !m.Applied() {
			out = append(out, m)
		}
	}
	return out
}

// PlanSchema picks the schema steps. The SQL migrations target PostgreSQL;
// SQLite is a local-only driver and always uses AutoMigrate.
func PlanSchema(db *gorm.DB, cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{
		Mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)),
		Env:  cfg.Env,
	}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	if db != nil {
		plan.Driver = db.Dialector.Name()
	}

	deployed := false
	switch strings.ToLower(strings.TrimSpace(cfg.Env)) {
	case "production", "prod", "staging", "stage":
		deployed = true
	}

	if plan.Driver == "sqlite" {
		if deployed {
			return plan, fmt.Errorf("sqlite cannot back a %q deployment", cfg.Env)
		}
		plan.AutoMigrate = true
		return plan, nil
	}

	switch plan.Mode {
	case SchemaModeSQL:
		plan.SQL = true
	case SchemaModeAuto:
		if deployed && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("DB_SCHEMA_MODE=auto in %q needs DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.AutoMigrate = true
	case SchemaModeHybrid:
		plan.SQL = true
		plan.AutoMigrate = !deployed
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}
	return plan, nil
}

// ApplySchema runs the planned steps: SQL migrations first, then AutoMigrate.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(db, cfg)
	if err != nil {
		return err
	}

	if plan.SQL {
		migrator, err := NewEmbeddedMigrator(db)
		if err != nil {
			return err
		}
		applied, err := migrator.Up(ctx)
		if err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
		if applied > 0 {
			middleware.Logger.Info("SQL migrations applied", slog.Int("count", applied))
		}
	}

	if plan.AutoMigrate {
		if plan.Mode == SchemaModeAuto && cfg.DBAutoMigrateAllowDestructive {
			middleware.Logger.Warn("AutoMigrate running with destructive changes allowed", slog.String("env", plan.Env))
		}
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("mode", plan.Mode), slog.String("driver", plan.Driver))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus reports the plan and migration state without changing the
// schema beyond creating schema_migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(db, cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan}
	if !plan.SQL {
		return status, nil
	}

	migrator, err := NewEmbeddedMigrator(db)
	if err != nil {
		return nil, err
	}
	if status.Migrations, err = migrator.Status(ctx); err != nil {
		return nil, err
	}
	return status, nil
}
