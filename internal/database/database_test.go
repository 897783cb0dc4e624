package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"rwid/internal/config"
	"rwid/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestTunePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	require.NoError(t, tunePool(db, &config.Config{DBDriver: "postgres", DBMaxOpenConns: 10}))
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, tunePool(db, &config.Config{DBDriver: "postgres"}))
	assert.Equal(t, defaultMaxOpenConns, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, tunePool(db, &config.Config{DBDriver: "sqlite", DBMaxOpenConns: 10}))
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestPostgresDSN(t *testing.T) {
	dsn := postgresDSN(&config.Config{
		DBHost:     "db.internal",
		DBPort:     "5432",
		DBUser:     "rwid",
		DBPassword: `it's a secret`,
		DBName:     "rwid",
	})
	assert.Equal(t, `host=db.internal port=5432 user=rwid password='it\'s a secret' dbname=rwid sslmode=disable`, dsn)

	dsn = postgresDSN(&config.Config{DBHost: "localhost", DBName: "rwid", DBSSLMode: "require"})
	assert.Equal(t, "host=localhost dbname=rwid sslmode=require", dsn)
}

func TestQueryLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ql := newQueryLogger(log, logger.Warn)
	sql := func() (string, int64) { return "SELECT 1", 1 }
	ctx := context.Background()

	ql.Trace(ctx, time.Now(), sql, nil)
	assert.Empty(t, buf.String(), "fast queries stay quiet at warn")

	ql.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String(), "missing rows are not errors")

	ql.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	assert.Contains(t, buf.String(), "slow query")

	buf.Reset()
	ql.Trace(ctx, time.Now(), sql, errors.New("relation does not exist"))
	assert.Contains(t, buf.String(), "query failed")
	assert.Contains(t, buf.String(), "relation does not exist")

	buf.Reset()
	ql.LogMode(logger.Silent).Trace(ctx, time.Now(), sql, errors.New("boom"))
	assert.Empty(t, buf.String())
}

func TestApplySchema_SQLiteUsesAutoMigrate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{Env: "test", DBSchemaMode: SchemaModeHybrid}
	require.NoError(t, ApplySchema(context.Background(), db, cfg))

	assert.True(t, db.Migrator().HasTable(&models.Post{}))
	assert.True(t, db.Migrator().HasTable(&models.Bookmark{}))
	assert.False(t, db.Migrator().HasTable("schema_migrations"), "sqlite skips the SQL migrations")

	status, err := GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Driver)
	assert.False(t, status.SQL)
	assert.True(t, status.AutoMigrate)
	assert.Empty(t, status.Pending())
}

func TestPlanSchema(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantSQL  bool
		wantAuto bool
		wantErr  string
	}{
		{name: "hybrid in development", cfg: config.Config{Env: "development"}, wantSQL: true, wantAuto: true},
		{name: "hybrid in production", cfg: config.Config{Env: "production", DBSchemaMode: "HYBRID"}, wantSQL: true},
		{name: "sql only", cfg: config.Config{Env: "development", DBSchemaMode: SchemaModeSQL}, wantSQL: true},
		{name: "auto in staging without opt-in", cfg: config.Config{Env: "staging", DBSchemaMode: SchemaModeAuto}, wantErr: "DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"},
		{name: "auto in production with opt-in", cfg: config.Config{Env: "prod", DBSchemaMode: SchemaModeAuto, DBAutoMigrateAllowDestructive: true}, wantAuto: true},
		{name: "unknown mode", cfg: config.Config{DBSchemaMode: "yolo"}, wantErr: "unsupported DB_SCHEMA_MODE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanSchema(nil, &tt.cfg)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, plan.SQL)
			assert.Equal(t, tt.wantAuto, plan.AutoMigrate)
		})
	}
}

func TestPlanSchema_RejectsSQLiteInProduction(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	_, err = PlanSchema(db, &config.Config{Env: "production"})
	assert.ErrorContains(t, err, "sqlite cannot back")
}

func TestEmbeddedMigrations(t *testing.T) {
	migrations, err := EmbeddedMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, "000001_init_schema", migrations[0].String())
	assert.Contains(t, migrations[0].Up, "CREATE TABLE IF NOT EXISTS reactions")
	assert.Len(t, migrations[0].Checksum, 64)
}
