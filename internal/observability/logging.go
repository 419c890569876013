// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger is the process-wide structured logger. InitLogger replaces it.
var Logger *slog.Logger

// LogContextKey types the context keys read by the logger.
type LogContextKey string

// Context keys picked up by the context-aware handler.
const (
	RequestIDKey     LogContextKey = "request_id"
	AdminKey         LogContextKey = "admin"
	TraceIDKey       LogContextKey = "trace_id"
	CorrelationIDKey LogContextKey = "correlation_id"
)

var contextAttrs = []LogContextKey{RequestIDKey, AdminKey, TraceIDKey}

// ctxHandler copies request-scoped context values onto every record.
type ctxHandler struct {
	slog.Handler
}

func (h ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, key := range contextAttrs {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			r.AddAttrs(slog.String(string(key), v))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h ctxHandler) WithGroup(name string) slog.Handler {
	return ctxHandler{h.Handler.WithGroup(name)}
}

func init() {
	InitLogger(os.Getenv("APP_ENV"), os.Stdout)
}

// InitLogger rebuilds Logger: JSON in production, text elsewhere. LOG_LEVEL overrides
// the info default.
func InitLogger(env string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: levelFromEnv(os.Getenv("LOG_LEVEL"))}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(w, opts)
	}

	Logger = slog.New(ctxHandler{handler})
	slog.SetDefault(Logger)
}

func levelFromEnv(v string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// ExtractCorrelationID returns the correlation ID on ctx, falling back to the request ID.
func ExtractCorrelationID(ctx context.Context) string {
	for _, key := range []LogContextKey{CorrelationIDKey, RequestIDKey} {
		if id, ok := ctx.Value(key).(string); ok && id != "" {
			return id
		}
	}
	return ""
}

// WithAdmin tags the context with the acting admin for log records.
func WithAdmin(ctx context.Context, admin string) context.Context {
	return context.WithValue(ctx, AdminKey, admin)
}

// ExtractAdmin returns the acting admin recorded on ctx.
func ExtractAdmin(ctx context.Context) string {
	admin, _ := ctx.Value(AdminKey).(string)
	return admin
}

// scoped resolves Logger at call time so InitLogger reaches loggers built before it ran.
type scoped []any

func (s scoped) log() *slog.Logger {
	return Logger.With(s...)
}

// UpstreamLogger logs calls to the platform API.
type UpstreamLogger struct{ scope scoped }

func NewUpstreamLogger() *UpstreamLogger {
	return &UpstreamLogger{scope: scoped{"component", "upstream"}}
}

// LogCall records one completed call. Business failures log at warn.
func (l *UpstreamLogger) LogCall(ctx context.Context, endpoint string, status int, success bool, latency time.Duration) {
	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}
	l.scope.log().Log(ctx, level, "upstream call",
		slog.String("endpoint", endpoint),
		slog.Int("status", status),
		slog.Bool("success", success),
		slog.Duration("latency", latency),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogError records a call that produced no usable envelope.
func (l *UpstreamLogger) LogError(ctx context.Context, endpoint string, err error, latency time.Duration) {
	l.scope.log().ErrorContext(ctx, "upstream unavailable",
		slog.String("endpoint", endpoint),
		slog.Duration("latency", latency),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
		slog.Any("error", err),
	)
}

// RepoLogger logs audit store operations for one table.
type RepoLogger struct{ scope scoped }

func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{scope: scoped{"component", "repository", "table", table}}
}

func (l *RepoLogger) LogCreate(ctx context.Context, fields map[string]any) {
	attrs := make([]any, 0, len(fields)+1)
	attrs = append(attrs, slog.String("correlation_id", ExtractCorrelationID(ctx)))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.scope.log().InfoContext(ctx, "audit entry recorded", attrs...)
}

func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	l.scope.log().ErrorContext(ctx, "repository error",
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
		slog.Any("error", err),
	)
}

// WSLogger logs live stream connections.
type WSLogger struct{ scope scoped }

func NewWSLogger(stream string) *WSLogger {
	return &WSLogger{scope: scoped{"component", "websocket", "stream", stream}}
}

func (l *WSLogger) LogConnect(ctx context.Context, admin string) {
	l.scope.log().InfoContext(ctx, "stream client connected", slog.String("admin", admin))
}

func (l *WSLogger) LogDisconnect(ctx context.Context, admin, reason string) {
	l.scope.log().InfoContext(ctx, "stream client disconnected",
		slog.String("admin", admin), slog.String("reason", reason))
}

func (l *WSLogger) LogError(ctx context.Context, err error, direction string) {
	l.scope.log().WarnContext(ctx, "stream client error",
		slog.String("direction", direction), slog.Any("error", err))
}
