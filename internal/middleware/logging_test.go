package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Logger
	Logger = NewLogger(&buf, "production", level)
	t.Cleanup(func() { Logger = prev })
	return &buf
}

func TestStructuredLogger_CarriesRequestFields(t *testing.T) {
	buf := captureLogs(t, "info")

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(ContextMiddleware())
	app.Use(StructuredLogger())
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, "member-1")
		return c.Next()
	})
	app.Get("/api/bookmarks", func(c *fiber.Ctx) error {
		Logger.InfoContext(c.UserContext(), "listing bookmarks")
		return c.SendString("[]")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/bookmarks", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-42")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	_ = resp.Body.Close()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"msg":"listing bookmarks"`)
	assert.Contains(t, lines[0], `"request_id":"req-42"`)
	assert.Contains(t, lines[1], `"msg":"request"`)
	assert.Contains(t, lines[1], `"path":"/api/bookmarks"`)
	assert.Contains(t, lines[1], `"status":200`)
	assert.Contains(t, lines[1], `"bytes":2`)
}

func TestStructuredLogger_LevelFollowsStatus(t *testing.T) {
	buf := captureLogs(t, "info")

	app := fiber.New()
	app.Use(StructuredLogger())
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/missing", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })
	app.Get("/broken", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusInternalServerError) })

	for _, path := range []string{"/health", "/missing", "/broken"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	out := buf.String()
	assert.NotContains(t, out, `"path":"/health"`, "probes log at debug")
	assert.Contains(t, out, `"level":"WARN","msg":"request","method":"GET","path":"/missing"`)
	assert.Contains(t, out, `"level":"ERROR","msg":"request","method":"GET","path":"/broken"`)
}
