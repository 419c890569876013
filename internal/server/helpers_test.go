package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaging(t *testing.T) {
	tests := []struct {
		query string
		want  Paging
	}{
		{"", Paging{}},
		{"?page=2&limit=25", Paging{Page: 2, Limit: 25}},
		{"?page=-4&limit=-1", Paging{}},
		{"?limit=500", Paging{Limit: maxPageSize}},
		{"?page=abc", Paging{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			app := fiber.New()
			var got Paging
			app.Get("/", func(c *fiber.Ctx) error {
				got = parsePaging(c)
				return nil
			})
			_, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfirmValue(t *testing.T) {
	tests := []struct {
		name string
		url  string
		body string
		want string
	}{
		{"absent", "/", "", ""},
		{"query", "/?confirm=true", "", "true"},
		{"query wins over body", "/?confirm=no", `{"confirm":true}`, "no"},
		{"body true", "/", `{"confirm":true}`, "true"},
		{"body false", "/", `{"confirm":false}`, "false"},
		{"body without field", "/", `{"other":1}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			var got string
			app.Post("/", func(c *fiber.Ctx) error {
				got = confirmValue(c)
				return nil
			})
			req := httptest.NewRequest(http.MethodPost, tt.url, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			_, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken(""))
}

func TestHumanizeParam(t *testing.T) {
	assert.Equal(t, "ID", humanizeParam("id"))
	assert.Equal(t, "user ID", humanizeParam("userId"))
	assert.Equal(t, "report user ID", humanizeParam("reportUserId"))
	assert.Equal(t, "index", humanizeParam("index"))
}
