package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"rwid/internal/models"
	"rwid/internal/observability"
	"rwid/internal/validation"
)

// NewPost is the composer input.
type NewPost struct {
	Title    string `json:"title,omitempty"`
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl,omitempty"`
	Pinned   bool   `json:"pinned,omitempty"`
}

// ToggleLike flips the viewer's like on a post.
func (c *Client) ToggleLike(ctx context.Context, postID uint) (*models.LikeResult, error) {
	var res models.LikeResult
	path := fmt.Sprintf("/api/posts/%d/like", postID)
	if err := c.do(ctx, http.MethodPost, path, c.bearer(ctx), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ToggleBookmark flips the viewer's bookmark on a post.
func (c *Client) ToggleBookmark(ctx context.Context, postID uint) (*models.BookmarkResult, error) {
	var res models.BookmarkResult
	path := fmt.Sprintf("/api/posts/%d/bookmark", postID)
	if err := c.do(ctx, http.MethodPost, path, c.bearer(ctx), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CreatePost publishes a post to a community. Blank content is rejected
// before any request is made.
func (c *Client) CreatePost(ctx context.Context, slug string, communityID uint, in NewPost) (*models.Post, error) {
	content, err := validation.ValidatePostContent(in.Content)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	in.Content = content

	var resp struct {
		Post models.Post `json:"post"`
	}
	path := fmt.Sprintf("/api/platforms/%s/communities/%d/posts", url.PathEscape(slug), communityID)
	if err := c.do(ctx, http.MethodPost, path, c.bearer(ctx), in, &resp); err != nil {
		return nil, err
	}
	return &resp.Post, nil
}

// ComposePost publishes a post and then reloads the community feed, so the
// returned view shows the post as the server stored it. The view is nil
// when publishing fails.
func (c *Client) ComposePost(ctx context.Context, slug string, communityID uint, in NewPost) (*models.Post, *FeedView, error) {
	post, err := c.CreatePost(ctx, slug, communityID, in)
	if err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "post create failed",
			slog.String("platform", slug),
			slog.Uint64("community_id", uint64(communityID)),
			slog.String("error", err.Error()))
		return nil, nil, err
	}
	return post, c.Feed(ctx, slug, communityID, false), nil
}

// ApplyLike patches the view with the server's answer.
func (v *FeedView) ApplyLike(res models.LikeResult) {
	if res.Liked {
		v.Liked[res.PostID] = true
	} else {
		delete(v.Liked, res.PostID)
	}
	for _, p := range v.Posts {
		if p.ID == res.PostID {
			p.Likes = res.Likes
			p.IsLiked = res.Liked
		}
	}
}

// ApplyBookmark patches the view with the server's answer.
func (v *FeedView) ApplyBookmark(res models.BookmarkResult) {
	if res.Bookmarked {
		v.Bookmarked[res.PostID] = true
	} else {
		delete(v.Bookmarked, res.PostID)
	}
	for _, p := range v.Posts {
		if p.ID == res.PostID {
			p.IsBookmarked = res.Bookmarked
		}
	}
}

// ToggleFeedLike toggles a like and patches v on success. A failure is logged
// and leaves v untouched.
func (c *Client) ToggleFeedLike(ctx context.Context, v *FeedView, postID uint) bool {
	res, err := c.ToggleLike(ctx, postID)
	if err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "like toggle failed",
			slog.Uint64("post_id", uint64(postID)), slog.String("error", err.Error()))
		return false
	}
	v.ApplyLike(*res)
	return true
}

// ToggleFeedBookmark toggles a bookmark and patches v on success.
func (c *Client) ToggleFeedBookmark(ctx context.Context, v *FeedView, postID uint) bool {
	res, err := c.ToggleBookmark(ctx, postID)
	if err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "bookmark toggle failed",
			slog.Uint64("post_id", uint64(postID)), slog.String("error", err.Error()))
		return false
	}
	v.ApplyBookmark(*res)
	return true
}
