package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	observability.InitLogger("development", &buf)
	t.Cleanup(func() { observability.InitLogger("development", &bytes.Buffer{}) })

	app := fiber.New()
	app.Use(StructuredLogger())
	app.Get("/health/live", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/api/users/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })
	app.Get("/api/posts", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusBadGateway) })

	tests := []struct {
		path string
		want string
	}{
		{"/api/users/7", `level=WARN msg="request rejected"`},
		{"/api/posts", `level=ERROR msg="request failed"`},
	}
	for _, tt := range tests {
		buf.Reset()
		_, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
		require.NoError(t, err)
		assert.Contains(t, buf.String(), tt.want, tt.path)
	}

	buf.Reset()
	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	assert.Empty(t, buf.String(), "probes log below the info level")

	buf.Reset()
	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/users/7", nil))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "route=/api/users/:id")
}

func TestContextMiddleware_CopiesLocals(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalRequestID, "req-42")
		c.Locals(LocalTraceID, "trace-7")
		return c.Next()
	})
	app.Use(ContextMiddleware())

	var ctx context.Context
	app.Get("/", func(c *fiber.Ctx) error {
		ctx = c.UserContext()
		return nil
	})
	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "req-42", ctx.Value(observability.RequestIDKey))
	assert.Equal(t, "trace-7", ctx.Value(observability.TraceIDKey))
	assert.Equal(t, "req-42", observability.ExtractCorrelationID(ctx))
}

func TestTracingMiddleware_NoTraceHeaderWhenDisabled(t *testing.T) {
	_, err := observability.InitTracing(observability.TracingConfig{})
	require.NoError(t, err)

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Trace-ID"))
}
