package middleware

import (
	"io"
	"log/slog"
	"os"
	"time"

	"rwid/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// Logger is the HTTP layer's structured logger.
var Logger = NewLogger(os.Stdout, os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

// NewLogger builds a logger that tags lines with the request's ID, user and
// trace.
func NewLogger(w io.Writer, env, level string) *slog.Logger {
	return observability.NewLogger(w, env, level)
}

// ContextMiddleware copies the request and trace IDs from Fiber locals onto
// the user context so loggers deeper in the stack pick them up. JWTAuth adds
// the user ID once the token is verified.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f observability.RequestFields
		f.RequestID, _ = c.Locals("requestid").(string)
		f.TraceID, _ = c.Locals(LocalTraceID).(string)
		f.UserID, _ = c.Locals(LocalUserID).(string)
		c.SetUserContext(observability.WithRequestFields(c.UserContext(), f))
		return c.Next()
	}
}

// StructuredLogger logs one line per request. Server errors log at error,
// client errors at warn, and probe or scrape traffic only at debug.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		level := slog.LevelInfo
		switch {
		case err != nil || status >= fiber.StatusInternalServerError:
			level = slog.LevelError
		case status >= fiber.StatusBadRequest:
			level = slog.LevelWarn
		case untracedPaths[c.Path()]:
			level = slog.LevelDebug
		}

		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.IP()),
			slog.Int("bytes", len(c.Response().Body())),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		Logger.LogAttrs(c.UserContext(), level, "request", attrs...)
		return err
	}
}
