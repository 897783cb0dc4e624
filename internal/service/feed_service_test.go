package service

import (
	"testing"
	"time"

	"rwid/internal/models"
	"rwid/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newFeedService(db *gorm.DB) *FeedService {
	platforms := NewPlatformService(repository.NewPlatformRepository(db), repository.NewAccountRepository(db))
	return NewFeedService(
		repository.NewPostRepository(db),
		repository.NewBookmarkRepository(db),
		repository.NewProfileRepository(db),
		platforms,
	)
}

func TestFeedService_LoadFeed_OnlyPinned(t *testing.T) {
	db := setupSQLiteDB(t)
	w := seedWorld(t, db)
	now := time.Now()
	seedPost(t, db, w, w.general, "regular", false, now)
	pinned := seedPost(t, db, w, w.general, "pinned", true, now.Add(-time.Minute))
	svc := newFeedService(db)

	feed, err := svc.LoadFeed(bg, LoadFeedInput{Slug: "alpha", CommunityID: w.general.ID, ViewerID: "owner-1", OnlyPinned: true})
	require.NoError(t, err)
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, pinned.ID, feed.Posts[0].ID)
	assert.True(t, feed.OnlyPinned)
	assert.Nil(t, feed.Empty)

	feed, err = svc.LoadFeed(bg, LoadFeedInput{Slug: "alpha", CommunityID: w.general.ID, ViewerID: "owner-1"})
	require.NoError(t, err)
	require.Len(t, feed.Posts, 2)
	assert.Equal(t, "regular", feed.Posts[0].Content)
}

func TestFeedService_LoadFeed_EmptyStates(t *testing.T) {
	db := setupSQLiteDB(t)
	w := seedWorld(t, db)
	seedPost(t, db, w, w.general, "regular", false, time.Now())
	svc := newFeedService(db)

	feed, err := svc.LoadFeed(bg, LoadFeedInput{Slug: "alpha", CommunityID: w.general.ID, ViewerID: "owner-1", OnlyPinned: true})
	require.NoError(t, err)
	assert.Empty(t, feed.Posts)
	require.NotNil(t, feed.Empty)
	assert.Equal(t, "No pinned posts", feed.Empty.Title)
	assert.Equal(t, "Subscribe to see all posts", feed.Empty.Message)

	feed, err = svc.LoadFeed(bg, LoadFeedInput{Slug: "alpha", CommunityID: w.premium.ID, ViewerID: "owner-1"})
	require.NoError(t, err)
	require.NotNil(t, feed.Empty)
	assert.Equal(t, "No posts yet", feed.Empty.Title)
	assert.Equal(t, "Be the first to start the conversation!", feed.Empty.Message)
}

func TestFeedService_LoadFeed_NoAccessForcesPinned(t *testing.T) {
	db := setupSQLiteDB(t)
	w := seedWorld(t, db)
	seedPost(t, db, w, w.general, "members only", false, time.Now())
	svc := newFeedService(db)

	for _, viewer := range []string{"", "stranger"} {
		feed, err := svc.LoadFeed(bg, LoadFeedInput{Slug: "alpha", CommunityID: w.general.ID, ViewerID: viewer})
		require.NoError(t, err)
		assert.True(t, feed.OnlyPinned)
		assert.Empty(t, feed.Posts)
	}
}

func TestFeedService_LoadFeed_MarksViewerState(t *testing.T) {
	db := setupSQLiteDB(t)
	w := seedWorld(t, db)
	now := time.Now()
	a := seedPost(t, db, w, w.general, "a", false, now)
	b := seedPost(t, db, w, w.general, "b", false, now.Add(-time.Minute))
	svc := newFeedService(db)

	_, err := svc.TogglePostLike(bg, "owner-1", b.ID)
	require.NoError(t, err)
	_, err = svc.TogglePostBookmark(bg, "owner-1", a.ID)
	require.NoError(t, err)

	ctx := WithFeedLoaders(bg, NewFeedLoaders(repository.NewPostRepository(db), repository.NewBookmarkRepository(db), "owner-1"))
	feed, err := svc.LoadFeed(ctx, LoadFeedInput{Slug: "alpha", CommunityID: w.general.ID, ViewerID: "owner-1"})
	require.NoError(t, err)
	require.Len(t, feed.Posts, 2)

	assert.Equal(t, a.ID, feed.Posts[0].ID)
	assert.False(t, feed.Posts[0].IsLiked)
	assert.True(t, feed.Posts[0].IsBookmarked)
	assert.True(t, feed.Posts[1].IsLiked)
	assert.False(t, feed.Posts[1].IsBookmarked)
	assert.Equal(t, 1, feed.Posts[1].Likes)
}

func TestFeedService_TogglePostLike_TwiceRestores(t *testing.T) {
	db := setupSQLiteDB(t)
	w := seedWorld(t, db)
	post := seedPost(t, db, w, w.general, "hello", false, time.Now())
	svc := newFeedService(db)

	first, err := svc.TogglePostLike(bg, "u-1", post.ID)
	require.NoError(t, err)
	assert.True(t, first.Liked)
	assert.Equal(t, 1, first.Likes)

	second, err := svc.TogglePostLike(bg, "u-1", post.ID)
	require.NoError(t, err)
	assert.False(t, second.Liked)
	assert.Equal(t, 0, second.Likes)

	var reactions int64
	require.NoError(t, db.Model(&models.Reaction{}).Where("post_id = ?", post.ID).Count(&reactions).Error)
	assert.Zero(t, reactions)
}

func TestFeedService_TogglePostBookmark_TwiceRestores(t *testing.T) {
	db := setupSQLiteDB(t)
	w := seedWorld(t, db)
	post := seedPost(t, db, w, w.general, "hello", false, time.Now())
	svc := newFeedService(db)

	first, err := svc.TogglePostBookmark(bg, "u-1", post.ID)
	require.NoError(t, err)
	assert.True(t, first.Bookmarked)

	bookmarks, err := svc.ListBookmarks(bg, "u-1", 0)
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	assert.Equal(t, models.BookmarkKey(w.platform.ID, post.ID), bookmarks[0].Key)

	second, err := svc.TogglePostBookmark(bg, "u-1", post.ID)
	require.NoError(t, err)
	assert.False(t, second.Bookmarked)

	bookmarks, err = svc.ListBookmarks(bg, "u-1", 0)
	require.NoError(t, err)
	assert.Empty(t, bookmarks)
}

func TestFeedService_Toggles_RequireViewer(t *testing.T) {
	svc := newFeedService(setupSQLiteDB(t))

	_, err := svc.TogglePostLike(bg, "", 1)
	assertAppErrorCode(t, err, models.CodeUnauthorized)
	_, err = svc.TogglePostBookmark(bg, "", 1)
	assertAppErrorCode(t, err, models.CodeUnauthorized)
	_, err = svc.TogglePostLike(bg, "u-1", 999)
	assert.True(t, models.IsNotFound(err))
}

func TestFeedService_CreatePost(t *testing.T) {
	db := setupSQLiteDB(t)
	w := seedWorld(t, db)
	require.NoError(t, db.Create(&models.Profile{UserID: "owner-1", DisplayName: "Olive", PhotoURL: "https://example.com/o.png", Role: models.RoleOwner}).Error)
	svc := newFeedService(db)

	post, err := svc.CreatePost(bg, CreatePostInput{
		Slug:        "alpha",
		CommunityID: w.general.ID,
		ViewerID:    "owner-1",
		Content:     "  Welcome!  ",
	})
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
	assert.Equal(t, "Welcome!", post.Content)
	assert.Equal(t, "Olive", post.AuthorName)
	assert.Equal(t, "https://example.com/o.png", post.AuthorAvatar)
	assert.Equal(t, "General", post.CommunityName)
	assert.Zero(t, post.Likes)
	assert.Zero(t, post.Comments)

	feed, err := svc.LoadFeed(bg, LoadFeedInput{Slug: "alpha", CommunityID: w.general.ID, ViewerID: "owner-1"})
	require.NoError(t, err)
	require.Len(t, feed.Posts, 1)
}

func TestFeedService_CreatePost_Validation(t *testing.T) {
	db := setupSQLiteDB(t)
	w := seedWorld(t, db)
	svc := newFeedService(db)

	tests := []struct {
		name string
		in   CreatePostInput
	}{
		{name: "blank content", in: CreatePostInput{Content: "   "}},
		{name: "bad image url", in: CreatePostInput{Content: "hi", ImageURL: "ftp://x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Slug = "alpha"
			tt.in.CommunityID = w.general.ID
			tt.in.ViewerID = "owner-1"
			_, err := svc.CreatePost(bg, tt.in)
			assertValidationError(t, err)
		})
	}

	_, err := svc.CreatePost(bg, CreatePostInput{Slug: "alpha", CommunityID: w.general.ID, ViewerID: "owner-1", Content: " "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please enter some content")
}

func TestFeedService_CreatePost_OwnerOnly(t *testing.T) {
	db := setupSQLiteDB(t)
	w := seedWorld(t, db)
	require.NoError(t, repository.NewPlatformRepository(db).UpsertMember(bg,
		&models.PlatformMember{PlatformID: w.platform.ID, UserID: "paid", HasPaid: true}))
	svc := newFeedService(db)

	_, err := svc.CreatePost(bg, CreatePostInput{Slug: "alpha", CommunityID: w.general.ID, ViewerID: "paid", Content: "hi"})
	assertAppErrorCode(t, err, models.CodeForbidden)
}
