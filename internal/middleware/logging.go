// Package middleware provides Fiber middleware for logging, tracing, metrics and rate limiting.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// Locals keys shared with the server package.
const (
	LocalRequestID = "requestid"
	LocalAdmin     = "admin"
	LocalTraceID   = "traceID"
)

// ContextMiddleware moves the request ID and trace ID from Fiber locals into the request
// context so upstream calls and audit entries can carry them.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if rid, ok := c.Locals(LocalRequestID).(string); ok {
			ctx = context.WithValue(ctx, observability.RequestIDKey, rid)
		}
		if tid, ok := c.Locals(LocalTraceID).(string); ok {
			ctx = context.WithValue(ctx, observability.TraceIDKey, tid)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// probePaths are logged at debug level only.
var probePaths = []string{"/health", "/metrics"}

// StructuredLogger logs one line per request. 5xx responses log at error level and 4xx
// at warn; probes drop to debug.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		fields := []any{
			slog.Int("status", status),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("route", c.Route().Path),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
		}
		if err != nil {
			fields = append(fields, slog.String("error", err.Error()))
		}

		// UserContext carries the admin once AuthRequired has run further down the chain.
		ctx := c.UserContext()
		log := observability.Logger
		switch {
		case status >= http.StatusInternalServerError || (err != nil && status == http.StatusOK):
			log.ErrorContext(ctx, "request failed", fields...)
		case status >= http.StatusBadRequest:
			log.WarnContext(ctx, "request rejected", fields...)
		case isProbe(c.Path()):
			log.DebugContext(ctx, "probe", fields...)
		default:
			log.InfoContext(ctx, "request processed", fields...)
		}
		return err
	}
}

func isProbe(path string) bool {
	for _, p := range probePaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
