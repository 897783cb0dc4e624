package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags godoc
// @Summary      Feature flags for the caller
// @Description  Every configured flag with its rule and whether it is on for the signed-in user.
// @Tags         meta
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string][]featureflags.State
// @Router       /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"flags": s.featureFlags.Evaluate(viewerID(c))})
}
