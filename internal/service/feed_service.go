package service

import (
	"context"
	"log/slog"
	"strings"

	"rwid/internal/models"
	"rwid/internal/observability"
	"rwid/internal/repository"
	"rwid/internal/validation"
)

// FeedService serves community feeds and the post mutations.
type FeedService struct {
	posts     repository.PostRepository
	bookmarks repository.BookmarkRepository
	profiles  repository.ProfileRepository
	platforms *PlatformService
}

func NewFeedService(
	posts repository.PostRepository,
	bookmarks repository.BookmarkRepository,
	profiles repository.ProfileRepository,
	platforms *PlatformService,
) *FeedService {
	return &FeedService{
		posts:     posts,
		bookmarks: bookmarks,
		profiles:  profiles,
		platforms: platforms,
	}
}

type LoadFeedInput struct {
	Slug        string
	CommunityID uint
	ViewerID    string
	OnlyPinned  bool
}

type CreatePostInput struct {
	Slug        string
	CommunityID uint
	ViewerID    string
	Title       string
	Content     string
	ImageURL    string
	Pinned      bool
}

// LoadFeed returns the newest posts of a community with the viewer's liked
// and bookmarked flags set. Viewers without access only see pinned posts.
func (s *FeedService) LoadFeed(ctx context.Context, in LoadFeedInput) (*models.Feed, error) {
	view, err := s.platforms.GetCommunity(ctx, in.Slug, in.CommunityID, in.ViewerID)
	if err != nil {
		return nil, err
	}

	onlyPinned := in.OnlyPinned || !view.Access.HasAccess
	posts, err := s.posts.ListByCommunity(ctx, view.Community.ID, onlyPinned, models.FeedPageSize)
	if err != nil {
		return nil, err
	}

	if in.ViewerID != "" && len(posts) > 0 {
		if err := s.markViewerState(ctx, in.ViewerID, posts); err != nil {
			return nil, err
		}
	}

	feed := &models.Feed{Posts: posts, OnlyPinned: onlyPinned}
	if len(posts) == 0 {
		empty := models.FeedEmptyState(onlyPinned)
		feed.Empty = &empty
	}

	mode := "full"
	if onlyPinned {
		mode = "pinned"
	}
	observability.FeedLoads.WithLabelValues(mode).Inc()
	return feed, nil
}

func (s *FeedService) markViewerState(ctx context.Context, viewerID string, posts []*models.Post) error {
	loaders := FeedLoadersFrom(ctx)
	if loaders == nil {
		loaders = NewFeedLoaders(s.posts, s.bookmarks, viewerID)
	}

	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	likedThunk := loaders.Liked.LoadMany(ctx, ids)
	bookmarkedThunk := loaders.Bookmarked.LoadMany(ctx, ids)

	liked, errs := likedThunk()
	if err := firstError(errs); err != nil {
		return err
	}
	bookmarked, errs := bookmarkedThunk()
	if err := firstError(errs); err != nil {
		return err
	}

	for i, p := range posts {
		p.IsLiked = liked[i]
		p.IsBookmarked = bookmarked[i]
	}
	return nil
}

// TogglePostLike flips the viewer's like on a post atomically.
func (s *FeedService) TogglePostLike(ctx context.Context, viewerID string, postID uint) (*models.LikeResult, error) {
	if viewerID == "" {
		return nil, models.NewUnauthorizedError("Sign in to like posts")
	}
	ctx, span := observability.StartDBSpan(ctx, "toggle_like", "reactions")
	result, err := s.posts.ToggleLike(ctx, postID, viewerID)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	observability.ReactionToggles.WithLabelValues(observability.ToggleAction(result.Liked, "liked", "unliked")).Inc()
	return result, nil
}

// TogglePostBookmark adds or removes the viewer's bookmark on a post.
func (s *FeedService) TogglePostBookmark(ctx context.Context, viewerID string, postID uint) (*models.BookmarkResult, error) {
	if viewerID == "" {
		return nil, models.NewUnauthorizedError("Sign in to bookmark posts")
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	ctx, span := observability.StartDBSpan(ctx, "toggle", "bookmarks")
	bookmarked, err := s.bookmarks.Toggle(ctx, viewerID, post.PlatformID, post.ID)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	observability.BookmarkToggles.WithLabelValues(observability.ToggleAction(bookmarked, "added", "removed")).Inc()
	return &models.BookmarkResult{PostID: post.ID, Bookmarked: bookmarked}, nil
}

// CreatePost appends a post to a community feed with a snapshot of the
// author's profile. Only the platform owner or an admin may post.
func (s *FeedService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.ViewerID == "" {
		return nil, models.NewUnauthorizedError("Sign in to post")
	}
	content, err := validation.ValidatePostContent(in.Content)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	title := strings.TrimSpace(in.Title)
	if err := validation.ValidatePostTitle(title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	imageURL := strings.TrimSpace(in.ImageURL)
	if err := validation.ValidateImageURL(imageURL); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	view, err := s.platforms.GetCommunity(ctx, in.Slug, in.CommunityID, in.ViewerID)
	if err != nil {
		return nil, err
	}
	if !view.Access.CanPost {
		return nil, models.NewForbiddenError("Only the platform owner can post here")
	}

	post := &models.Post{
		PlatformID:    view.Platform.ID,
		CommunityID:   view.Community.ID,
		CommunityName: view.Community.Name,
		AuthorID:      in.ViewerID,
		AuthorName:    "User",
		Title:         title,
		Content:       content,
		ImageURL:      imageURL,
		Pinned:        in.Pinned && view.Access.IsOwner,
	}

	profile, err := s.profiles.GetByUserID(ctx, in.ViewerID)
	switch {
	case err == nil:
		if name := strings.TrimSpace(profile.DisplayName); name != "" {
			post.AuthorName = name
		}
		post.AuthorAvatar = profile.PhotoURL
	case models.IsNotFound(err):
	default:
		observability.GlobalLogger.WarnContext(ctx, "author profile unavailable for post snapshot",
			slog.String("uid", in.ViewerID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// ListBookmarks returns the viewer's bookmarks, newest first.
func (s *FeedService) ListBookmarks(ctx context.Context, viewerID string, limit int) ([]models.Bookmark, error) {
	if viewerID == "" {
		return nil, models.NewUnauthorizedError("Sign in to see bookmarks")
	}
	if limit <= 0 || limit > models.FeedPageSize {
		limit = models.FeedPageSize
	}
	return s.bookmarks.ListByUser(ctx, viewerID, limit)
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
