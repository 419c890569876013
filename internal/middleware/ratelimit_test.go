package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestCheckRateLimit(t *testing.T) {
	tests := []struct {
		name          string
		env           string
		nilRedis      bool
		calls         int
		limit         int
		wantAllowed   bool
		wantRemaining int
		wantErr       bool
	}{
		{name: "test environment bypass", env: "test", nilRedis: true, calls: 5, limit: 1, wantAllowed: true, wantRemaining: 1},
		{name: "development environment bypass", env: "development", nilRedis: true, calls: 5, limit: 1, wantAllowed: true, wantRemaining: 1},
		{name: "missing store in staging", env: "staging", nilRedis: true, calls: 1, limit: 1, wantErr: true},
		{name: "under the limit", env: "staging", calls: 2, limit: 3, wantAllowed: true, wantRemaining: 1},
		{name: "at the limit", env: "staging", calls: 3, limit: 3, wantAllowed: true, wantRemaining: 0},
		{name: "over the limit", env: "staging", calls: 4, limit: 3, wantAllowed: false, wantRemaining: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.env)
			var rdb *redis.Client
			if !tt.nilRedis {
				rdb, _ = newTestRedis(t)
			}
			l := Limit{Bucket: "login", Max: tt.limit, Window: time.Minute}

			var d Decision
			var err error
			for i := 0; i < tt.calls; i++ {
				d, err = CheckRateLimit(context.Background(), rdb, l, "ip:1")
			}
			if tt.wantErr {
				assert.ErrorIs(t, err, errNoLimiterStore)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllowed, d.Allowed)
			assert.Equal(t, tt.wantRemaining, d.Remaining)
			assert.Positive(t, d.ResetIn)
		})
	}
}

func TestCheckRateLimit_WindowExpires(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	rdb, mr := newTestRedis(t)
	l := Limit{Bucket: "like", Max: 1, Window: 30 * time.Second}

	d, err := CheckRateLimit(context.Background(), rdb, l, "admin:a@b.c")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	assert.Equal(t, 30*time.Second, mr.TTL(limiterKey("like", "admin:a@b.c")))

	d, err = CheckRateLimit(context.Background(), rdb, l, "admin:a@b.c")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	mr.FastForward(31 * time.Second)
	d, err = CheckRateLimit(context.Background(), rdb, l, "admin:a@b.c")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	rdb, _ := newTestRedis(t)

	app := fiber.New()
	app.Post("/login", RateLimit(rdb, 2, time.Minute, "login"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	var last *http.Response
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
		last = resp
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "2", last.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", last.Header.Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", last.Header.Get("Retry-After"))

	raw, err := io.ReadAll(last.Body)
	require.NoError(t, err)
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, models.CodeRateLimited, body.Code)
}

func TestRateLimitMiddleware_CountsAdminsSeparately(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	rdb, _ := newTestRedis(t)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalAdmin, c.Get("X-Admin"))
		return c.Next()
	})
	app.Delete("/users/:id", RateLimit(rdb, 1, time.Minute, "delete_user"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	status := func(admin string) int {
		req := httptest.NewRequest(http.MethodDelete, "/users/3", nil)
		req.Header.Set("X-Admin", admin)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusNoContent, status("one@ziogram.test"))
	assert.Equal(t, http.StatusTooManyRequests, status("one@ziogram.test"))
	assert.Equal(t, http.StatusNoContent, status("two@ziogram.test"))
}

func TestLimiter_FailPolicy(t *testing.T) {
	t.Setenv("APP_ENV", "staging")

	closed := fiber.New()
	closed.Get("/", Limiter(nil, Limit{Bucket: "x", Max: 1, Window: time.Minute, Policy: FailClosed}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	resp, err := closed.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	open := fiber.New()
	open.Get("/", RateLimit(nil, 1, time.Minute, "x"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	resp, err = open.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
