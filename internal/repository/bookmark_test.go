package repository

import (
	"regexp"
	"testing"
	"time"

	"rwid/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookmarkRepository_ToggleTwiceRestoresState(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewBookmarkRepository(db)
	f := seedFixture(t, db)
	post := seedPost(t, db, f, "save me", false, time.Now())

	on, err := repo.Toggle(bg, "uid-1", f.platform.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, on)

	var stored models.Bookmark
	require.NoError(t, db.Where("user_id = ?", "uid-1").First(&stored).Error)
	assert.Equal(t, models.BookmarkKey(f.platform.ID, post.ID), stored.Key)

	ids, err := repo.BookmarkedPostIDs(bg, "uid-1", []uint{post.ID, post.ID + 1})
	require.NoError(t, err)
	assert.Equal(t, []uint{post.ID}, ids)

	off, err := repo.Toggle(bg, "uid-1", f.platform.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, off)

	ids, err = repo.BookmarkedPostIDs(bg, "uid-1", []uint{post.ID})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBookmarkRepository_ListByUserNewestFirst(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewBookmarkRepository(db)
	f := seedFixture(t, db)
	older := seedPost(t, db, f, "older", false, time.Now().Add(-time.Hour))
	newer := seedPost(t, db, f, "newer", false, time.Now())

	require.NoError(t, db.Create(&models.Bookmark{
		UserID: "uid-1", Key: models.BookmarkKey(f.platform.ID, older.ID),
		PlatformID: f.platform.ID, PostID: older.ID, CreatedAt: time.Now().Add(-time.Minute),
	}).Error)
	require.NoError(t, db.Create(&models.Bookmark{
		UserID: "uid-1", Key: models.BookmarkKey(f.platform.ID, newer.ID),
		PlatformID: f.platform.ID, PostID: newer.ID, CreatedAt: time.Now(),
	}).Error)

	bookmarks, err := repo.ListByUser(bg, "uid-1", 0)
	require.NoError(t, err)
	require.Len(t, bookmarks, 2)
	assert.Equal(t, newer.ID, bookmarks[0].PostID)
	require.NotNil(t, bookmarks[0].Post)
	assert.Equal(t, "newer", bookmarks[0].Post.Content)
}

func TestBookmarkRepository_ToggleRacingInsert(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookmarkRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "bookmarks" WHERE user_id = $1 AND bookmark_key = $2`)).
		WithArgs("uid-1", "3_9").
		WillReturnResult(sqlmock.NewResult(0, 0))
	// The other request won: the insert hits the key and changes nothing.
	mock.ExpectExec(`INSERT INTO "bookmarks" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	on, err := repo.Toggle(bg, "uid-1", 3, 9)
	require.NoError(t, err)
	assert.True(t, on)
	assert.NoError(t, mock.ExpectationsWereMet())
}
