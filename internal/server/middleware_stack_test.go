package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"rwid/internal/config"
	"rwid/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "http://localhost:8081"

// stackApp mounts SetupMiddleware in front of a single /ping route.
func stackApp(method string) *fiber.App {
	srv := &Server{config: &config.Config{AllowedOrigins: testOrigin}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	app.Add(method, "/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
	return app
}

func send(t *testing.T, app *fiber.App, method string, header http.Header) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, "/ping", nil)
	req.Header.Set("Origin", testOrigin)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestSetupMiddleware_Headers(t *testing.T) {
	app := stackApp(http.MethodGet)

	resp := send(t, app, http.MethodGet, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
	assert.Equal(t, testOrigin, resp.Header.Get("Access-Control-Allow-Origin"))

	other := send(t, app, http.MethodGet, http.Header{"Origin": {"https://evil.example"}})
	assert.Empty(t, other.Header.Get("Access-Control-Allow-Origin"))
}

func TestSetupMiddleware_RecoversFromPanics(t *testing.T) {
	srv := &Server{config: &config.Config{AllowedOrigins: testOrigin}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	app.Get("/ping", func(*fiber.Ctx) error { panic("feed exploded") })

	resp := send(t, app, http.MethodGet, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestSetupMiddleware_GlobalLimit(t *testing.T) {
	app := stackApp(http.MethodPost)

	for i := 0; i < globalRequestsPerMinute; i++ {
		require.Equal(t, http.StatusOK, send(t, app, http.MethodPost, nil).StatusCode)
	}

	limited := send(t, app, http.MethodPost, nil)
	assert.Equal(t, http.StatusTooManyRequests, limited.StatusCode)
	assert.Equal(t, testOrigin, limited.Header.Get("Access-Control-Allow-Origin"), "rejections keep CORS headers")
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(limited.Body).Decode(&body))
	assert.Equal(t, models.CodeRateLimited, body.Code)

	preflight := send(t, app, http.MethodOptions, http.Header{
		"Access-Control-Request-Method":  {http.MethodPost},
		"Access-Control-Request-Headers": {"authorization,content-type"},
	})
	assert.Equal(t, http.StatusNoContent, preflight.StatusCode, "preflights skip the limiter")
	assert.Contains(t, preflight.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}
