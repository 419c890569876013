package server

import (
	"context"
	"errors"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/upstream"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/views"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) fetchPosts(ctx context.Context, page, pageSize int) (views.Result[models.Post], error) {
	p, err := s.upstream.ListPosts(ctx, page, pageSize)
	if err != nil {
		return views.Result[models.Post]{}, err
	}
	res := views.Result[models.Post]{
		Records:    p.Posts,
		TotalPages: p.TotalPages,
	}
	if p.TotalPosts > 0 {
		res.Total = p.TotalPosts
		res.TotalKnown = true
	}
	return res, nil
}

// GetPosts handles GET /api/admin/posts?page=&limit=&refresh=
func (s *Server) GetPosts(c *fiber.Ctx) error {
	feed := s.workspace(c).Feed
	if err := refreshList(c.UserContext(), feed.ListState, parsePaging(c), c.QueryBool("refresh"), "posts", s.fetchPosts); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(feed.Render(s.now()))
}

// LikePost handles POST /api/admin/posts/:id/like. The like is applied optimistically and
// rolled back if the upstream call fails; the response carries the settled card.
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	feed := s.workspace(c).Feed

	ticket, err := feed.ToggleLike(postID)
	switch {
	case errors.Is(err, views.ErrLikePending):
		return models.RespondWithError(c, fiber.StatusConflict, models.NewConflictError("A like on this post is already in progress"))
	case errors.Is(err, views.ErrPostNotFound):
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Post", postID))
	case err != nil:
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	if err := s.upstream.Like(c.UserContext(), postID); err != nil {
		feed.RollbackLike(ticket)
		appErr := upstream.AsAppError("posts", err)
		return c.Status(models.StatusFor(appErr)).JSON(fiber.Map{
			"error": errorMessage(appErr),
			"post":  findPost(feed.Render(s.now()), postID),
		})
	}
	feed.ConfirmLike(ticket)
	return c.JSON(fiber.Map{"post": findPost(feed.Render(s.now()), postID)})
}

// TogglePostExpanded handles POST /api/admin/posts/:id/show-more
func (s *Server) TogglePostExpanded(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	feed := s.workspace(c).Feed
	if _, ok := feed.Find(postID); !ok {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Post", postID))
	}
	feed.ToggleExpanded(postID)
	return c.JSON(fiber.Map{"post": findPost(feed.Render(s.now()), postID)})
}

// OpenPostModal handles POST /api/admin/posts/:id/modal?tab=likes|comments
func (s *Server) OpenPostModal(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	modal, err := s.workspace(c).Feed.OpenModal(postID, c.Query("tab", views.TabLikes))
	switch {
	case errors.Is(err, views.ErrInvalidTab):
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
	case errors.Is(err, views.ErrPostNotFound):
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Post", postID))
	case err != nil:
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"modal": modal})
}

// ClosePostModal handles DELETE /api/admin/posts/modal
func (s *Server) ClosePostModal(c *fiber.Ctx) error {
	s.workspace(c).Feed.CloseModal()
	return c.SendStatus(fiber.StatusNoContent)
}

func findPost(v views.FeedView, postID int64) *views.PostView {
	for i := range v.Posts {
		if v.Posts[i].PostID == postID {
			return &v.Posts[i]
		}
	}
	return nil
}
