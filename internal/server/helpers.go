package server

import (
	"strconv"

	"rwid/internal/middleware"
	"rwid/internal/models"

	"github.com/gofiber/fiber/v2"
)

const maxListLimit = models.FeedPageSize

// queryLimit reads ?limit=, falling back for missing or non-positive values
// and capping at maxListLimit.
func queryLimit(c *fiber.Ctx, fallback int) int {
	limit := c.QueryInt("limit", fallback)
	if limit <= 0 {
		limit = fallback
	}
	return min(limit, maxListLimit)
}

// pathID parses the :id route parameter. label names it in the 400 message,
// e.g. "post ID".
func pathID(c *fiber.Ctx, label string) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, models.NewValidationError("Invalid " + label)
	}
	return uint(id), nil
}

// viewerID returns the authenticated uid, or "" for anonymous requests.
func viewerID(c *fiber.Ctx) string {
	uid, _ := middleware.UserID(c)
	return uid
}
