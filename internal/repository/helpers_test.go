package repository

import (
	"context"
	"testing"
	"time"

	"rwid/internal/database"
	"rwid/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLiteDB opens a private in-memory database with the full schema.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type fixture struct {
	platform  *models.Platform
	community *models.Community
}

func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	platform := &models.Platform{Name: "Alpha", Slug: "alpha", OwnerID: "owner-1", Public: true}
	require.NoError(t, db.Create(platform).Error)
	community := &models.Community{PlatformID: platform.ID, Name: "General"}
	require.NoError(t, db.Create(community).Error)
	return fixture{platform: platform, community: community}
}

func seedPost(t *testing.T, db *gorm.DB, f fixture, content string, pinned bool, at time.Time) *models.Post {
	t.Helper()
	post := &models.Post{
		PlatformID:  f.platform.ID,
		CommunityID: f.community.ID,
		AuthorID:    "owner-1",
		AuthorName:  "Owner",
		Content:     content,
		Pinned:      pinned,
		CreatedAt:   at,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

var bg = context.Background()
