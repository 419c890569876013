package server

import (
	"errors"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/moderation"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/views"

	"github.com/gofiber/fiber/v2"
)

// BlockUser handles POST /api/admin/users/:id/block?list=users|reported&confirm=
// On the reported list the action is worded as a ban.
func (s *Server) BlockUser(c *fiber.Ctx) error {
	return s.moderate(c, func(list string, _ bool) string {
		if list == listReported {
			return moderation.ActionBan
		}
		return moderation.ActionBlock
	})
}

// UnbanUser handles POST /api/admin/users/:id/unban
func (s *Server) UnbanUser(c *fiber.Ctx) error {
	return s.moderate(c, func(string, bool) string { return moderation.ActionUnban })
}

// ToggleUserBlock handles POST /api/admin/users/:id/toggle. The action follows the row's
// current blocked flag.
func (s *Server) ToggleUserBlock(c *fiber.Ctx) error {
	return s.moderate(c, func(list string, blocked bool) string {
		return moderation.ActionFor(blocked, list == listReported)
	})
}

// DeleteUser handles DELETE /api/admin/users/:id
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	return s.moderate(c, func(string, bool) string { return moderation.ActionDelete })
}

// moderate runs the confirm-then-mutate flow for the user in the :id param. Without a
// decision the prompt is returned with 428 so the client can ask the admin.
func (s *Server) moderate(c *fiber.Ctx, pick func(list string, blocked bool) string) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	list := c.Query("list", listUsers)
	if list != listUsers && list != listReported {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("list must be users or reported"))
	}

	ws := s.workspace(c)
	req := moderation.Request{
		Action: pick(list, rowBlocked(ws, list, userID)),
		UserID: userID,
		Actor:  currentSession(c).Admin.Email,
	}

	out, err := s.moderation.Run(c.UserContext(), req, moderation.DecisionFrom(confirmValue(c)))
	switch {
	case errors.Is(err, moderation.ErrConfirmationRequired):
		prompt, perr := s.moderation.Prompt(req)
		if perr != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(perr))
		}
		return c.Status(fiber.StatusPreconditionRequired).JSON(fiber.Map{
			"error":  "Confirmation required",
			"code":   models.CodeConfirmationRequired,
			"prompt": prompt,
		})
	case err != nil:
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	if out.Status == moderation.StatusConfirmed {
		applyEffect(ws, list, userID, out.Effect)
	}

	status := fiber.StatusOK
	switch out.Status {
	case moderation.StatusRejected:
		status = fiber.StatusUnprocessableEntity
	case moderation.StatusFailed:
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(out)
}

// applyEffect updates the lists after a confirmed action. Only the affected row is
// touched on the source list; the other list is refetched on its next read.
func applyEffect(ws *views.Workspace, list string, userID int64, effect moderation.Effect) {
	switch effect {
	case moderation.EffectRemove:
		if list == listReported {
			ws.Reported.Remove(userID)
			ws.Users.Invalidate()
		} else {
			ws.Users.Remove(userID)
			ws.Reported.Invalidate()
		}
	case moderation.EffectRefetch:
		ws.Users.Invalidate()
		ws.Reported.Invalidate()
	}
}

// rowBlocked looks up the blocked flag of a row on the current page.
func rowBlocked(ws *views.Workspace, list string, userID int64) bool {
	if list == listReported {
		r, ok := ws.Reported.Find(userID)
		return ok && r.Profile.Blocked()
	}
	u, ok := ws.Users.Find(userID)
	return ok && u.Blocked()
}

// confirmValue reads the admin's decision from the confirm query parameter or the JSON
// body field of the same name.
func confirmValue(c *fiber.Ctx) string {
	if v := c.Query("confirm"); v != "" {
		return v
	}
	if len(c.Body()) == 0 {
		return ""
	}
	var body struct {
		Confirm *bool `json:"confirm"`
	}
	if err := c.BodyParser(&body); err != nil || body.Confirm == nil {
		return ""
	}
	if *body.Confirm {
		return "true"
	}
	return "false"
}
