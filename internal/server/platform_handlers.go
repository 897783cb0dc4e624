package server

import (
	"rwid/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetPlatforms handles GET /api/platforms
// @Summary List public platforms
// @Tags platforms
// @Produce json
// @Success 200 {object} object{platforms=[]models.Platform}
// @Router /platforms [get]
func (s *Server) GetPlatforms(c *fiber.Ctx) error {
	platforms, err := s.platformService.FetchVisiblePlatforms(c.UserContext())
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"platforms": platforms})
}

// GetPlatform handles GET /api/platforms/:slug
// @Summary Get a platform by slug
// @Tags platforms
// @Produce json
// @Param slug path string true "Platform slug"
// @Success 200 {object} object{platform=models.Platform}
// @Failure 404 {object} models.ErrorResponse
// @Router /platforms/{slug} [get]
func (s *Server) GetPlatform(c *fiber.Ctx) error {
	platform, err := s.platformService.GetPlatformBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"platform": platform})
}

// GetCommunities handles GET /api/platforms/:slug/communities
// @Summary List the communities of a platform
// @Tags platforms
// @Produce json
// @Param slug path string true "Platform slug"
// @Success 200 {object} object{communities=[]models.Community}
// @Failure 404 {object} models.ErrorResponse
// @Router /platforms/{slug}/communities [get]
func (s *Server) GetCommunities(c *fiber.Ctx) error {
	_, communities, err := s.platformService.ListCommunities(c.UserContext(), c.Params("slug"))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"communities": communities})
}

// GetCommunity handles GET /api/platforms/:slug/communities/:id
// @Summary Get a community and the caller's access
// @Tags platforms
// @Produce json
// @Param slug path string true "Platform slug"
// @Param id path int true "Community ID"
// @Success 200 {object} object{platform=models.Platform,community=models.Community,hasAccess=bool,isOwner=bool,canPost=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /platforms/{slug}/communities/{id} [get]
func (s *Server) GetCommunity(c *fiber.Ctx) error {
	communityID, err := pathID(c, "community ID")
	if err != nil {
		return models.Respond(c, err)
	}

	view, err := s.platformService.GetCommunity(c.UserContext(), c.Params("slug"), communityID, viewerID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"platform":  view.Platform,
		"community": view.Community,
		"hasAccess": view.Access.HasAccess,
		"isOwner":   view.Access.IsOwner,
		"canPost":   view.Access.CanPost,
	})
}
