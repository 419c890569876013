package server

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/session"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/upstream"

	"github.com/gofiber/fiber/v2"
)

// Login handles POST /api/auth/login. The credentials are checked upstream; on success a
// console session is created and its token returned in the body and the token cookie.
func (s *Server) Login(c *fiber.Ctx) error {
	var req upstream.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.AdminID = strings.TrimSpace(req.AdminID)

	if req.AdminID == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email is required!"))
	}
	if req.AdminPassword == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Password is required!"))
	}

	res, err := s.upstream.AdminLogin(c.UserContext(), req)
	if err != nil {
		if rej, ok := upstream.IsRejected(err); ok {
			msg := rej.Message
			if msg == "" {
				msg = "Login failed"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
		}
		observability.Logger.WarnContext(c.UserContext(), "admin login failed upstream",
			slog.String("admin", req.AdminID), slog.String("error", err.Error()))
		return models.RespondWithError(c, fiber.StatusBadGateway, &models.AppError{
			Code:    models.CodeUpstreamUnavailable,
			Message: "An error occurred",
			Err:     err,
		})
	}

	admin := session.Admin{
		Name:       res.Admin.AdminName,
		ProfilePic: res.Admin.ProfilePic,
		Email:      req.AdminID,
	}
	sess, token, err := s.sessions.Create(c.UserContext(), admin, res.Token)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	observability.Logger.InfoContext(c.UserContext(), "admin signed in", slog.String("admin", admin.Email))
	return c.JSON(fiber.Map{
		"token":       token,
		"admin":       sess.Admin,
		"preferences": sess.Prefs,
		"expires_at":  sess.ExpiresAt,
	})
}

// Logout handles POST /api/auth/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	sess := currentSession(c)
	if err := s.sessions.Destroy(c.UserContext(), sess.ID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	s.workspaces.Drop(sess.ID)

	c.ClearCookie(sessionCookie)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me handles GET /api/auth/me
func (s *Server) Me(c *fiber.Ctx) error {
	sess := currentSession(c)
	return c.JSON(fiber.Map{
		"admin":       sess.Admin,
		"preferences": sess.Prefs,
		"expires_at":  sess.ExpiresAt,
	})
}

var validThemes = map[string]bool{"light": true, "dark": true, "system": true}

// UpdatePreferences handles PATCH /api/session/preferences
func (s *Server) UpdatePreferences(c *fiber.Ctx) error {
	var patch session.PreferencesPatch
	if err := c.BodyParser(&patch); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if patch.Theme != nil && !validThemes[*patch.Theme] {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Theme must be light, dark or system"))
	}
	if patch.Locale != nil && strings.TrimSpace(*patch.Locale) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Locale cannot be empty"))
	}

	sess, err := s.sessions.UpdatePreferences(c.UserContext(), currentSession(c).ID, patch)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired session"))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"preferences": sess.Prefs})
}
