package server

import (
	"strings"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/middleware"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/session"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/upstream"

	"github.com/gofiber/fiber/v2"
)

const (
	localSession  = "session"
	sessionCookie = "token"
)

// AuthRequired resolves the admin session from the bearer token or the session cookie and
// installs it, together with the upstream token, on the request context.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Cookies(sessionCookie)
		}
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		sess, err := s.sessions.Resolve(c.UserContext(), token)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired session"))
		}

		c.Locals(localSession, sess)
		c.Locals(middleware.LocalAdmin, sess.Admin.Email)

		ctx := session.NewContext(c.UserContext(), sess)
		ctx = upstream.WithToken(ctx, sess.UpstreamToken)
		ctx = observability.WithAdmin(ctx, sess.Admin.Email)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// RequireFeature rejects requests while the named flag is off for the admin.
func (s *Server) RequireFeature(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, _ := c.Locals(middleware.LocalAdmin).(string)
		if !s.featureFlags.Enabled(name, admin) {
			return models.RespondWithAppError(c, models.NewFeatureDisabledError(name))
		}
		return c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// featureEnabled evaluates a flag for the requesting admin.
func (s *Server) featureEnabled(c *fiber.Ctx, name string) bool {
	return s.featureFlags.Enabled(name, currentSession(c).Admin.Email)
}
