package server

import (
	"context"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/moderation"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/pagination"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/upstream"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/views"

	"github.com/gofiber/fiber/v2"
)

const (
	listUsers    = "users"
	listReported = "reported"
)

// fetchFunc loads one page of a list from upstream.
type fetchFunc[T any] func(ctx context.Context, page, pageSize int) (views.Result[T], error)

// refreshList brings l up to date for the requested paging. A cached page is served
// as is unless the paging changed, the list was invalidated or force is set. When the
// result shows the requested page no longer exists the cursor is clamped and the clamped
// page fetched once.
func refreshList[T any](ctx context.Context, l *views.ListState[T], p Paging, force bool, resource string, fetch fetchFunc[T]) error {
	sizeChanged := p.Limit > 0 && l.SetPageSize(p.Limit)
	if !force && !sizeChanged && !l.NeedsRefresh() && (p.Page == 0 || p.Page == l.Page()) {
		return nil
	}

	t := l.BeginPage(p.Page)
	for attempt := 0; ; attempt++ {
		res, err := fetch(ctx, t.Page, t.PageSize)
		if err != nil {
			appErr := upstream.AsAppError(resource, err)
			l.Fail(t, errorMessage(appErr))
			return appErr
		}
		out := l.Apply(t, res)
		if !out.Refetch || attempt > 0 {
			return nil
		}
		t = l.Begin()
	}
}

// tableView is the response of a paged table.
type tableView[R any] struct {
	Rows         []R             `json:"rows"`
	Pagination   pagination.View `json:"pagination"`
	Loading      bool            `json:"loading"`
	Error        string          `json:"error,omitempty"`
	EmptyMessage string          `json:"empty_message,omitempty"`
}

func toTable[T, R any](v views.ListView[T], row func(T) R) tableView[R] {
	out := tableView[R]{
		Rows:         make([]R, 0, len(v.Rows)),
		Pagination:   v.Pagination,
		Loading:      v.Loading,
		Error:        v.Error,
		EmptyMessage: v.EmptyMessage,
	}
	for _, rec := range v.Rows {
		out.Rows = append(out.Rows, row(rec))
	}
	return out
}

// userRow is one row of the registered users table.
type userRow struct {
	models.User
	FullName string `json:"full_name"`
	Blocked  bool   `json:"blocked"`
	Action   string `json:"action"`
}

func newUserRow(u models.User) userRow {
	return userRow{
		User:     u,
		FullName: u.FullName(),
		Blocked:  u.Blocked(),
		Action:   moderation.ActionFor(u.Blocked(), false),
	}
}

// reportRow is one row of the reported users table.
type reportRow struct {
	models.Report
	TargetUserID int64  `json:"target_user_id"`
	FullName     string `json:"full_name"`
	Blocked      bool   `json:"blocked"`
	Action       string `json:"action"`
}

func newReportRow(r models.Report) reportRow {
	return reportRow{
		Report:       r,
		TargetUserID: r.TargetUserID(),
		FullName:     r.Profile.FullName(),
		Blocked:      r.Profile.Blocked(),
		Action:       moderation.ActionFor(r.Profile.Blocked(), true),
	}
}

func (s *Server) fetchUsers(ctx context.Context, page, pageSize int) (views.Result[models.User], error) {
	p, err := s.upstream.ListUsers(ctx, page, pageSize)
	if err != nil {
		return views.Result[models.User]{}, err
	}
	res := views.Result[models.User]{
		Records:    p.Users,
		Total:      p.Pagination.Total,
		TotalKnown: true,
	}
	if len(p.Users) == 0 {
		res.EmptyMessage = "No users found"
	}
	return res, nil
}

func (s *Server) fetchReported(ctx context.Context, page, pageSize int) (views.Result[models.Report], error) {
	p, err := s.upstream.ListReportedUsers(ctx, page, pageSize)
	if err != nil {
		return views.Result[models.Report]{}, err
	}
	res := views.Result[models.Report]{
		Records:    p.Reports,
		Total:      p.Pagination.Total,
		TotalKnown: true,
	}
	if p.Empty || len(p.Reports) == 0 {
		res.EmptyMessage = "No reported users found"
	}
	return res, nil
}

// GetUsers handles GET /api/admin/users?page=&limit=&refresh=
func (s *Server) GetUsers(c *fiber.Ctx) error {
	list := s.workspace(c).Users
	if err := refreshList(c.UserContext(), list, parsePaging(c), c.QueryBool("refresh"), "users", s.fetchUsers); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(toTable(list.Snapshot(), newUserRow))
}

// GetReportedUsers handles GET /api/admin/reported-users?page=&limit=&refresh=
func (s *Server) GetReportedUsers(c *fiber.Ctx) error {
	list := s.workspace(c).Reported
	if err := refreshList(c.UserContext(), list, parsePaging(c), c.QueryBool("refresh"), "reported users", s.fetchReported); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(toTable(list.Snapshot(), newReportRow))
}
