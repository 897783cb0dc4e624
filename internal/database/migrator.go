package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rwid/internal/middleware"

	"gorm.io/gorm"
)

var (
	// ErrMigrationDrift means an applied migration no longer matches the
	// script shipped in the binary.
	ErrMigrationDrift = errors.New("applied migration differs from its script")
	// ErrUnknownMigration means the database records a version this build
	// does not know about.
	ErrUnknownMigration = errors.New("database has a migration this build does not know")
)

type schemaMigration struct {
	Version   int    `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"size:255;not null"`
	Checksum  string `gorm:"size:64;not null"`
	AppliedAt time.Time
}

func (schemaMigration) TableName() string { return "schema_migrations" }

// MigrationState pairs a known migration with its applied time, if any.
type MigrationState struct {
	Migration
	AppliedAt *time.Time
}

func (s MigrationState) Applied() bool { return s.AppliedAt != nil }

// Migrator applies SQL migrations and tracks them in schema_migrations.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
	now        func() time.Time
}

func NewMigrator(db *gorm.DB, migrations []Migration) *Migrator {
	return &Migrator{db: db, migrations: migrations, now: time.Now}
}

// NewEmbeddedMigrator uses the migrations compiled into the binary.
func NewEmbeddedMigrator(db *gorm.DB) (*Migrator, error) {
	migrations, err := EmbeddedMigrations()
	if err != nil {
		return nil, err
	}
	return NewMigrator(db, migrations), nil
}

func (m *Migrator) applied(ctx context.Context) (map[int]schemaMigration, error) {
	db := m.db.WithContext(ctx)
	if err := db.AutoMigrate(&schemaMigration{}); err != nil {
		return nil, fmt.Errorf("prepare schema_migrations: %w", err)
	}
	var rows []schemaMigration
	if err := db.Order("version").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}

	known := make(map[int]Migration, len(m.migrations))
	for _, mig := range m.migrations {
		known[mig.Version] = mig
	}
	out := make(map[int]schemaMigration, len(rows))
	for _, row := range rows {
		mig, ok := known[row.Version]
		if !ok {
			return nil, fmt.Errorf("%w: %06d_%s", ErrUnknownMigration, row.Version, row.Name)
		}
		if mig.Checksum != row.Checksum {
			return nil, fmt.Errorf("%w: %s", ErrMigrationDrift, mig)
		}
		out[row.Version] = row
	}
	return out, nil
}

// Status lists every known migration in version order.
func (m *Migrator) Status(ctx context.Context) ([]MigrationState, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	states := make([]MigrationState, 0, len(m.migrations))
	for _, mig := range m.migrations {
		state := MigrationState{Migration: mig}
		if row, ok := applied[mig.Version]; ok {
			at := row.AppliedAt
			state.AppliedAt = &at
		}
		states = append(states, state)
	}
	return states, nil
}

// Up applies every pending migration, each in its own transaction, and
// returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&schemaMigration{
				Version:   mig.Version,
				Name:      mig.Name,
				Checksum:  mig.Checksum,
				AppliedAt: m.now().UTC(),
			}).Error
		})
		if err != nil {
			return count, fmt.Errorf("apply %s: %w", mig, err)
		}
		middleware.Logger.Info("Migration applied", slog.String("migration", mig.String()))
		count++
	}
	return count, nil
}

// Down reverts the most recently applied migration, which must be version.
func (m *Migrator) Down(ctx context.Context, version int) error {
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}
	if _, ok := applied[version]; !ok {
		return fmt.Errorf("migration %06d is not applied", version)
	}
	for v := range applied {
		if v > version {
			return fmt.Errorf("migration %06d is applied after %06d; roll that back first", v, version)
		}
	}

	var mig Migration
	for _, candidate := range m.migrations {
		if candidate.Version == version {
			mig = candidate
		}
	}
	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.Down).Error; err != nil {
			return err
		}
		return tx.Delete(&schemaMigration{}, "version = ?", version).Error
	})
	if err != nil {
		return fmt.Errorf("revert %s: %w", mig, err)
	}
	middleware.Logger.Info("Migration reverted", slog.String("migration", mig.String()))
	return nil
}
