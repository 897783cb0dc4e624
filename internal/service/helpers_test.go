package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"rwid/internal/database"
	"rwid/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var bg = context.Background()

func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// world is a platform with two communities, its owner and one member.
type world struct {
	platform *models.Platform
	general  *models.Community
	premium  *models.Community
}

func seedWorld(t *testing.T, db *gorm.DB) world {
	t.Helper()
	platform := &models.Platform{Name: "Alpha", Slug: "alpha", OwnerID: "owner-1", Public: true}
	require.NoError(t, db.Create(platform).Error)
	general := &models.Community{PlatformID: platform.ID, Name: "General"}
	require.NoError(t, db.Create(general).Error)
	premium := &models.Community{PlatformID: platform.ID, Name: "Premium"}
	require.NoError(t, db.Create(premium).Error)
	return world{platform: platform, general: general, premium: premium}
}

func seedPost(t *testing.T, db *gorm.DB, w world, community *models.Community, content string, pinned bool, at time.Time) *models.Post {
	t.Helper()
	post := &models.Post{
		PlatformID:  w.platform.ID,
		CommunityID: community.ID,
		AuthorID:    "owner-1",
		AuthorName:  "Owner",
		Content:     content,
		Pinned:      pinned,
		CreatedAt:   at,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}

func strPtr(s string) *string { return &s }
