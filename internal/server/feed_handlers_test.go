package server

import (
	"fmt"
	"net/http"
	"testing"

	"rwid/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFeed(t *testing.T) {
	env := newTestEnv(t, "")
	s := env.seed(t)
	path := fmt.Sprintf("/api/platforms/alpha/communities/%d/posts", s.general.ID)
	owner := env.token(t, "owner-1")

	var feed models.Feed
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, owner, nil, &feed))
	require.Len(t, feed.Posts, 2)
	assert.False(t, feed.OnlyPinned)
	assert.Equal(t, s.regular.ID, feed.Posts[0].ID)

	feed = models.Feed{}
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path+"?pinned=true", owner, nil, &feed))
	require.Len(t, feed.Posts, 1)
	assert.True(t, feed.Posts[0].Pinned)

	feed = models.Feed{}
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, "", nil, &feed))
	assert.True(t, feed.OnlyPinned)
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, s.pinned.ID, feed.Posts[0].ID)
}

func TestGetFeed_PinnedEmptyState(t *testing.T) {
	env := newTestEnv(t, "")
	s := env.seed(t)
	require.NoError(t, env.db.Model(&models.Post{}).Where("id = ?", s.pinned.ID).Update("pinned", false).Error)

	var feed models.Feed
	path := fmt.Sprintf("/api/platforms/alpha/communities/%d/posts?pinned=true", s.general.ID)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, env.token(t, "owner-1"), nil, &feed))
	assert.Empty(t, feed.Posts)
	require.NotNil(t, feed.Empty)
	assert.Equal(t, "No pinned posts", feed.Empty.Title)
}

func TestToggleLikeAndBookmark(t *testing.T) {
	env := newTestEnv(t, "")
	s := env.seed(t)
	token := env.token(t, "member-1")
	likePath := fmt.Sprintf("/api/posts/%d/like", s.pinned.ID)
	bookmarkPath := fmt.Sprintf("/api/posts/%d/bookmark", s.pinned.ID)

	var like models.LikeResult
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, likePath, token, nil, &like))
	assert.True(t, like.Liked)
	assert.Equal(t, 1, like.Likes)

	var bookmark models.BookmarkResult
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, bookmarkPath, token, nil, &bookmark))
	assert.True(t, bookmark.Bookmarked)

	var feed models.Feed
	feedPath := fmt.Sprintf("/api/platforms/alpha/communities/%d/posts", s.general.ID)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, feedPath, token, nil, &feed))
	require.Len(t, feed.Posts, 1)
	assert.True(t, feed.Posts[0].IsLiked)
	assert.True(t, feed.Posts[0].IsBookmarked)

	var list struct {
		Bookmarks []models.Bookmark `json:"bookmarks"`
	}
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/bookmarks", token, nil, &list))
	require.Len(t, list.Bookmarks, 1)
	assert.Equal(t, s.pinned.ID, list.Bookmarks[0].PostID)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, likePath, token, nil, &like))
	assert.False(t, like.Liked)
	assert.Equal(t, 0, like.Likes)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, bookmarkPath, token, nil, &bookmark))
	assert.False(t, bookmark.Bookmarked)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, likePath, "", nil, nil))
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/posts/999/like", token, nil, nil))
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t, "")
	s := env.seed(t)
	path := fmt.Sprintf("/api/platforms/alpha/communities/%d/posts", s.general.ID)

	var errResp models.ErrorResponse
	status := env.do(t, http.MethodPost, path, env.token(t, "owner-1"), map[string]string{"content": "  "}, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Please enter some content", errResp.Error)

	status = env.do(t, http.MethodPost, path, env.token(t, "member-1"), map[string]string{"content": "hi"}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var out struct {
		Post models.Post `json:"post"`
	}
	status = env.do(t, http.MethodPost, path, env.token(t, "owner-1"), map[string]string{"content": "Hello members"}, &out)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Hello members", out.Post.Content)
	assert.Equal(t, s.general.ID, out.Post.CommunityID)
	assert.Equal(t, "owner-1", out.Post.AuthorID)
}
