package server

import (
	"rwid/internal/models"
	"rwid/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/platforms/:slug/communities/:id/posts
// @Summary Load a community feed
// @Description Viewers without access to the community only receive pinned posts
// @Tags feed
// @Produce json
// @Param slug path string true "Platform slug"
// @Param id path int true "Community ID"
// @Param pinned query bool false "Only pinned posts"
// @Success 200 {object} models.Feed
// @Failure 404 {object} models.ErrorResponse
// @Router /platforms/{slug}/communities/{id}/posts [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	communityID, err := pathID(c, "community ID")
	if err != nil {
		return models.Respond(c, err)
	}

	feed, err := s.feedService.LoadFeed(c.UserContext(), service.LoadFeedInput{
		Slug:        c.Params("slug"),
		CommunityID: communityID,
		ViewerID:    viewerID(c),
		OnlyPinned:  c.QueryBool("pinned", false),
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(feed)
}

// CreatePost handles POST /api/platforms/:slug/communities/:id/posts
// @Summary Create a post
// @Tags feed
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Platform slug"
// @Param id path int true "Community ID"
// @Param request body object{title=string,content=string,imageUrl=string,pinned=bool} true "Post"
// @Success 201 {object} object{post=models.Post}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /platforms/{slug}/communities/{id}/posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	communityID, err := pathID(c, "community ID")
	if err != nil {
		return models.Respond(c, err)
	}

	var req struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		ImageURL string `json:"imageUrl"`
		Pinned   bool   `json:"pinned"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.feedService.CreatePost(c.UserContext(), service.CreatePostInput{
		Slug:        c.Params("slug"),
		CommunityID: communityID,
		ViewerID:    viewerID(c),
		Title:       req.Title,
		Content:     req.Content,
		ImageURL:    req.ImageURL,
		Pinned:      req.Pinned,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": post})
}

// TogglePostLike handles POST /api/posts/:id/like
// @Summary Toggle the caller's like on a post
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.LikeResult
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) TogglePostLike(c *fiber.Ctx) error {
	postID, err := pathID(c, "post ID")
	if err != nil {
		return models.Respond(c, err)
	}
	result, err := s.feedService.TogglePostLike(c.UserContext(), viewerID(c), postID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(result)
}

// TogglePostBookmark handles POST /api/posts/:id/bookmark
// @Summary Toggle the caller's bookmark on a post
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.BookmarkResult
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/bookmark [post]
func (s *Server) TogglePostBookmark(c *fiber.Ctx) error {
	postID, err := pathID(c, "post ID")
	if err != nil {
		return models.Respond(c, err)
	}
	result, err := s.feedService.TogglePostBookmark(c.UserContext(), viewerID(c), postID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(result)
}

// GetBookmarks handles GET /api/bookmarks
// @Summary List the caller's bookmarks
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max results (default 50)"
// @Success 200 {object} object{bookmarks=[]models.Bookmark}
// @Router /bookmarks [get]
func (s *Server) GetBookmarks(c *fiber.Ctx) error {
	bookmarks, err := s.feedService.ListBookmarks(c.UserContext(), viewerID(c), queryLimit(c, maxListLimit))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"bookmarks": bookmarks})
}
