package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"rwid/internal/models"
	"rwid/internal/observability"
)

// PlatformDetail is the data of the platform screen.
type PlatformDetail struct {
	Platform    *models.Platform
	Communities []models.Community
	NotFound    bool
}

// CommunityDetail is the data of the community screen.
type CommunityDetail struct {
	Platform  *models.Platform
	Community *models.Community
	Access    models.CommunityAccess
	NotFound  bool
}

// FeedView is a loaded feed plus the viewer's liked and bookmarked posts.
type FeedView struct {
	Posts      []*models.Post
	Liked      map[uint]bool
	Bookmarked map[uint]bool
	OnlyPinned bool
	Empty      *models.EmptyState
}

func logLoadError(ctx context.Context, screen string, err error) {
	observability.GlobalLogger.ErrorContext(ctx, "screen load failed",
		slog.String("screen", screen),
		slog.String("error", err.Error()),
	)
}

// Platforms loads the public platforms for the home screen. Failures are
// logged and yield an empty list.
func (c *Client) Platforms(ctx context.Context) []models.Platform {
	var resp struct {
		Platforms []models.Platform `json:"platforms"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/platforms", "", nil, &resp); err != nil {
		logLoadError(ctx, "home", err)
		return []models.Platform{}
	}
	if resp.Platforms == nil {
		return []models.Platform{}
	}
	return resp.Platforms
}

// PlatformDetail loads a platform and its communities. An unknown slug sets
// NotFound.
func (c *Client) PlatformDetail(ctx context.Context, slug string) PlatformDetail {
	var detail PlatformDetail

	var platformResp struct {
		Platform models.Platform `json:"platform"`
	}
	base := "/api/platforms/" + url.PathEscape(slug)
	if err := c.do(ctx, http.MethodGet, base, "", nil, &platformResp); err != nil {
		if IsNotFound(err) {
			detail.NotFound = true
			return detail
		}
		logLoadError(ctx, "platform", err)
		return detail
	}
	detail.Platform = &platformResp.Platform

	var communitiesResp struct {
		Communities []models.Community `json:"communities"`
	}
	if err := c.do(ctx, http.MethodGet, base+"/communities", "", nil, &communitiesResp); err != nil {
		logLoadError(ctx, "platform", err)
		detail.Communities = []models.Community{}
		return detail
	}
	detail.Communities = communitiesResp.Communities
	return detail
}

// CommunityDetail loads a community and the viewer's access to it.
func (c *Client) CommunityDetail(ctx context.Context, slug string, communityID uint) CommunityDetail {
	var detail CommunityDetail
	var resp struct {
		Platform  models.Platform  `json:"platform"`
		Community models.Community `json:"community"`
		HasAccess bool             `json:"hasAccess"`
		IsOwner   bool             `json:"isOwner"`
		CanPost   bool             `json:"canPost"`
	}
	path := fmt.Sprintf("/api/platforms/%s/communities/%d", url.PathEscape(slug), communityID)
	if err := c.do(ctx, http.MethodGet, path, c.bearer(ctx), nil, &resp); err != nil {
		if IsNotFound(err) {
			detail.NotFound = true
			return detail
		}
		logLoadError(ctx, "community", err)
		return detail
	}
	detail.Platform = &resp.Platform
	detail.Community = &resp.Community
	detail.Access = models.CommunityAccess{
		HasAccess: resp.HasAccess,
		IsOwner:   resp.IsOwner,
		CanPost:   resp.CanPost,
	}
	return detail
}

// Feed loads a community feed. Failures are logged and yield the empty state.
func (c *Client) Feed(ctx context.Context, slug string, communityID uint, onlyPinned bool) *FeedView {
	path := fmt.Sprintf("/api/platforms/%s/communities/%d/posts", url.PathEscape(slug), communityID)
	if onlyPinned {
		path += "?pinned=true"
	}

	var feed models.Feed
	if err := c.do(ctx, http.MethodGet, path, c.bearer(ctx), nil, &feed); err != nil {
		logLoadError(ctx, "feed", err)
		empty := models.FeedEmptyState(onlyPinned)
		return &FeedView{
			Liked:      map[uint]bool{},
			Bookmarked: map[uint]bool{},
			OnlyPinned: onlyPinned,
			Empty:      &empty,
		}
	}
	return newFeedView(&feed)
}

func newFeedView(feed *models.Feed) *FeedView {
	v := &FeedView{
		Posts:      feed.Posts,
		Liked:      make(map[uint]bool, len(feed.Posts)),
		Bookmarked: make(map[uint]bool, len(feed.Posts)),
		OnlyPinned: feed.OnlyPinned,
		Empty:      feed.Empty,
	}
	if v.Posts == nil {
		v.Posts = []*models.Post{}
	}
	for _, p := range v.Posts {
		if p.IsLiked {
			v.Liked[p.ID] = true
		}
		if p.IsBookmarked {
			v.Bookmarked[p.ID] = true
		}
	}
	if len(v.Posts) == 0 && v.Empty == nil {
		empty := models.FeedEmptyState(v.OnlyPinned)
		v.Empty = &empty
	}
	return v
}

// Bookmarks loads the viewer's bookmarks, newest first.
func (c *Client) Bookmarks(ctx context.Context, limit int) []models.Bookmark {
	path := "/api/bookmarks"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var resp struct {
		Bookmarks []models.Bookmark `json:"bookmarks"`
	}
	if err := c.do(ctx, http.MethodGet, path, c.bearer(ctx), nil, &resp); err != nil {
		logLoadError(ctx, "bookmarks", err)
		return []models.Bookmark{}
	}
	if resp.Bookmarks == nil {
		return []models.Bookmark{}
	}
	return resp.Bookmarks
}
