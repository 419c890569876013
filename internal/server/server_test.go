package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/config"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/database"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/mockupstream"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
)

const (
	testAdminEmail    = "admin@ziogram.test"
	testAdminPassword = "s3cret-pass"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	server *Server
	app    *fiber.App
	ds     *mockupstream.Dataset
	redis  *miniredis.Miniredis
}

// newTestEnv starts a mock upstream seeded from opts and a server wired to it.
func newTestEnv(t *testing.T, opts mockupstream.Options, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	opts.Seed = 11
	opts.AdminEmail = testAdminEmail
	opts.AdminPassword = testAdminPassword
	opts.BcryptCost = bcrypt.MinCost
	opts.Now = testNow

	ds, err := mockupstream.Generate(opts)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	up := mockupstream.New(ds)
	go func() { _ = up.Listener(ln) }()
	t.Cleanup(func() { _ = up.Shutdown() })

	env := newTestEnvWithUpstream(t, "http://"+ln.Addr().String()+"/api", mutate...)
	env.ds = ds
	return env
}

// newTestEnvWithUpstream wires a server to an arbitrary upstream base URL.
func newTestEnvWithUpstream(t *testing.T, baseURL string, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), true)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                    "test",
		Port:                   "0",
		JWTSecret:              "test-secret-with-at-least-32-characters",
		SessionTTLHours:        1,
		AllowedOrigins:         "http://localhost:3000",
		FeatureFlags:           "product_variants=off",
		UpstreamBaseURL:        baseURL,
		UpstreamTimeoutSeconds: 5,
		DBDriver:               "sqlite",
		DefaultPageSize:        10,
		ProductMaxImages:       5,
		ImageMaxUploadSizeMB:   2,
		ImageMaxDimension:      64,
	}
	for _, m := range mutate {
		m(cfg)
	}

	s, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	s.now = func() time.Time { return testNow }

	return &testEnv{server: s, app: s.newApp(), redis: mr}
}

// do sends a JSON request and returns the response with its body.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(t, req, token)
}

func (e *testEnv) send(t *testing.T, req *http.Request, token string) (*http.Response, []byte) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, 10000)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	resp, raw := e.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"admin_id":       testAdminEmail,
		"admin_password": testAdminPassword,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, mockupstream.Options{Users: 3, Posts: 1})

	resp, raw := env.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", decode[map[string]any](t, raw)["status"])

	resp, raw = env.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](t, raw)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.Equal(t, "healthy", body.Checks["redis"])
	assert.Equal(t, "unavailable", body.Checks["nats"])
}

func TestHealthReady_RedisDown(t *testing.T) {
	env := newTestEnv(t, mockupstream.Options{Users: 3, Posts: 1})
	env.redis.Close()

	resp, _ := env.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAdminRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t, mockupstream.Options{Users: 3, Posts: 1})

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/admin/users"},
		{http.MethodGet, "/api/admin/reported-users"},
		{http.MethodGet, "/api/admin/posts"},
		{http.MethodPost, "/api/admin/users/1/block"},
		{http.MethodGet, "/api/admin/products/categories"},
		{http.MethodGet, "/api/admin/audit"},
		{http.MethodGet, "/api/auth/me"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			resp, raw := env.do(t, p.method, p.path, nil, "")
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "Authorization required", decode[errorBody](t, raw).Error)
		})
	}

	resp, raw := env.do(t, http.MethodGet, "/api/admin/users", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid or expired session", decode[errorBody](t, raw).Error)
}

func TestSessionCookieAuthenticates(t *testing.T) {
	env := newTestEnv(t, mockupstream.Options{Users: 3, Posts: 1})
	token := env.login(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	resp, raw := env.send(t, req, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[struct {
		Admin struct {
			Email string `json:"email"`
		} `json:"admin"`
	}](t, raw)
	assert.Equal(t, testAdminEmail, body.Admin.Email)
}

func TestWorkspacesAreIsolatedPerSession(t *testing.T) {
	env := newTestEnv(t, mockupstream.Options{Users: 25, Posts: 1})
	first := env.login(t)
	second := env.login(t)

	resp, _ := env.do(t, http.MethodGet, "/api/admin/users?page=3", nil, first)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, raw := env.do(t, http.MethodGet, "/api/admin/users", nil, second)
	assert.Equal(t, 1, decode[usersBody](t, raw).Pagination.Page)

	_, raw = env.do(t, http.MethodGet, "/api/admin/users", nil, first)
	assert.Equal(t, 3, decode[usersBody](t, raw).Pagination.Page)
}
