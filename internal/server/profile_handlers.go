package server

import (
	"rwid/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/profiles/:uid
// @Summary Get a user profile
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param uid path string true "User ID"
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{uid} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.authService.GetProfile(c.UserContext(), c.Params("uid"))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(profile)
}

// CreateProfile handles PUT /api/profiles/:uid
// @Summary Create the caller's profile if it does not exist
// @Tags profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uid path string true "User ID"
// @Param request body models.Profile true "Profile fields"
// @Success 200 {object} object{profile=models.Profile,created=bool}
// @Success 201 {object} object{profile=models.Profile,created=bool}
// @Failure 403 {object} models.ErrorResponse
// @Router /profiles/{uid} [put]
func (s *Server) CreateProfile(c *fiber.Ctx) error {
	var req models.Profile
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	profile, created, err := s.authService.CreateProfile(c.UserContext(), viewerID(c), c.Params("uid"), req)
	if err != nil {
		return models.Respond(c, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"profile": profile, "created": created})
}
