// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// RequestFields are the per-request identifiers attached to every log line
// written with a request context.
type RequestFields struct {
	RequestID string
	UserID    string
	TraceID   string
}

type requestFieldsKey struct{}

// WithRequestFields stores f on ctx, keeping any non-empty fields already there
// that f leaves blank.
func WithRequestFields(ctx context.Context, f RequestFields) context.Context {
	prev := RequestFieldsFrom(ctx)
	if f.RequestID == "" {
		f.RequestID = prev.RequestID
	}
	if f.UserID == "" {
		f.UserID = prev.UserID
	}
	if f.TraceID == "" {
		f.TraceID = prev.TraceID
	}
	return context.WithValue(ctx, requestFieldsKey{}, f)
}

// RequestFieldsFrom returns the fields stored on ctx, or the zero value.
func RequestFieldsFrom(ctx context.Context) RequestFields {
	if ctx == nil {
		return RequestFields{}
	}
	f, _ := ctx.Value(requestFieldsKey{}).(RequestFields)
	return f
}

// contextHandler appends RequestFields to records logged with a context.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	f := RequestFieldsFrom(ctx)
	if f.RequestID != "" {
		r.AddAttrs(slog.String("request_id", f.RequestID))
	}
	if f.UserID != "" {
		r.AddAttrs(slog.String("user_id", f.UserID))
	}
	if f.TraceID != "" {
		r.AddAttrs(slog.String("trace_id", f.TraceID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// NewLogger builds a request-aware logger. Deployed environments get JSON,
// everything else gets text.
func NewLogger(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(contextHandler{h})
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GlobalLogger is used by packages below the HTTP layer: services, the
// client, the auth bridge and the repositories.
var GlobalLogger = NewLogger(os.Stdout, os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

// SetLogger replaces GlobalLogger. nil is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		GlobalLogger = l
	}
}

// RepoLogger writes repository events at debug level and failures at error
// level, tagged with the table name.
type RepoLogger struct {
	table string
}

func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table}
}

// Changed records a successful write such as "create" or "toggle_like".
func (l *RepoLogger) Changed(ctx context.Context, op string, attrs ...slog.Attr) {
	GlobalLogger.LogAttrs(ctx, slog.LevelDebug, "repository write",
		append([]slog.Attr{slog.String("table", l.table), slog.String("op", op)}, attrs...)...)
}

// Failed records err from op. A nil err is ignored.
func (l *RepoLogger) Failed(ctx context.Context, op string, err error) {
	if err == nil {
		return
	}
	GlobalLogger.LogAttrs(ctx, slog.LevelError, "repository error",
		slog.String("table", l.table),
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}
