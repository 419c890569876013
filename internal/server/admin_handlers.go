package server

import (
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/pagination"

	"github.com/gofiber/fiber/v2"
)

const defaultAuditPageSize = 20

// GetFeatureFlags returns configured feature flags and their state for the current admin.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	admin := currentSession(c).Admin.Email
	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(admin),
	})
}

// GetAuditLog handles GET /api/admin/audit?page=&limit=
func (s *Server) GetAuditLog(c *fiber.Ctx) error {
	p := parsePaging(c)
	if p.Limit == 0 {
		p.Limit = defaultAuditPageSize
	}
	if p.Page == 0 {
		p.Page = 1
	}

	total, err := s.auditRepo.Count(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	cursor := pagination.New(p.Limit)
	cursor.SetTotal(int(total))
	cursor.GoTo(p.Page)

	entries, err := s.auditRepo.List(c.UserContext(), p.Limit, pagination.Offset(cursor.Page(), p.Limit))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"rows":       entries,
		"pagination": cursor.View(),
	})
}
