package server

import (
	"log/slog"
	"time"

	"rwid/internal/middleware"
	"rwid/internal/models"
	"rwid/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Login handles POST /api/auth/login
// @Summary Credential or impersonation login
// @Description Authenticate with username/email and password, or with a user ID when impersonation is enabled
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	var (
		result *service.AuthResult
		err    error
	)
	if req.IsImpersonation() {
		result, err = s.authService.Impersonate(c.UserContext(), req.UserID)
	} else {
		result, err = s.authService.LoginWithPassword(c.UserContext(), req.Username, req.Password)
	}
	if err != nil {
		return models.Respond(c, err)
	}

	return s.respondWithToken(c, result, false)
}

// GoogleLogin handles POST /api/auth/google
// @Summary Google sign-in
// @Description Exchange a Google ID token for an API token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.GoogleLoginRequest true "Google ID token"
// @Success 200 {object} models.AuthResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /auth/google [post]
func (s *Server) GoogleLogin(c *fiber.Ctx) error {
	var req models.GoogleLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.authService.SignInWithGoogle(c.UserContext(), req.IDToken)
	if err != nil {
		return models.Respond(c, err)
	}
	return s.respondWithToken(c, result, true)
}

func (s *Server) respondWithToken(c *fiber.Ctx, result *service.AuthResult, withPrincipal bool) error {
	token, _, err := middleware.IssueToken(s.config.JWTSecret, result.Principal.UID, s.config.TokenTTL())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	resp := models.AuthResponse{Token: token, User: result.User}
	if withPrincipal {
		principal := result.Principal
		resp.Principal = &principal
	}
	return c.JSON(resp)
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{user=models.UserView}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.authService.Me(c.UserContext(), viewerID(c))
	if err != nil {
		if models.IsNotFound(err) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Account no longer exists"))
		}
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// Logout handles POST /api/auth/logout
// @Summary Revoke the current token
// @Description Always succeeds; a valid bearer token is blacklisted until it expires
// @Tags auth
// @Produce json
// @Success 200 {object} object{ok=bool}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	jti, _ := c.Locals(middleware.LocalTokenID).(string)
	exp, _ := c.Locals(middleware.LocalTokenExp).(time.Time)

	if jti != "" && s.redis != nil {
		ttl := time.Until(exp)
		if ttl > 0 {
			if err := s.redis.Set(c.UserContext(), revocationKey(jti), "1", ttl).Err(); err != nil {
				middleware.Logger.WarnContext(c.UserContext(), "failed to revoke token",
					slog.String("error", err.Error()),
				)
			}
		}
	}

	return c.JSON(fiber.Map{"ok": true})
}
