package server

import (
	"errors"
	"strings"
	"unicode"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/session"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/views"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Paging holds parsed page/limit query parameters. Zero means "not requested".
type Paging struct {
	Page  int
	Limit int
}

const (
	maxPageSize = 100
)

// parsePaging extracts the 1-based page and the page size. Out-of-range values are
// dropped rather than rejected; the list cursor clamps the page afterwards.
func parsePaging(c *fiber.Ctx) Paging {
	page := c.QueryInt("page", 0)
	if page < 0 {
		page = 0
	}
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		limit = 0
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return Paging{Page: page, Limit: limit}
}

// parseID extracts a route parameter by name as a positive integer.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (int64, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return int64(id), nil
}

// parseIndex extracts a zero-based route index.
func (s *Server) parseIndex(c *fiber.Ctx, param string) (int, error) {
	idx, err := c.ParamsInt(param)
	if err != nil || idx < 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return idx, nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "index" -> "index".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// errorMessage returns the client-facing message of err.
func errorMessage(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// currentSession returns the session installed by AuthRequired.
func currentSession(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(localSession).(*session.Session)
	return sess
}

// workspace returns the view state of the requesting admin.
func (s *Server) workspace(c *fiber.Ctx) *views.Workspace {
	sess := currentSession(c)
	return s.workspaces.Get(sess.ID, sess.ExpiresAt)
}
