package mockupstream

import (
	"strconv"
	"strings"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// New returns a Fiber app serving the platform endpoints under /api.
func New(ds *Dataset) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Ziogram Mock Upstream",
		BodyLimit:    64 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())

	h := &handlers{ds: ds}
	api := app.Group("/api")
	api.Post("/adminLogin", h.adminLogin)

	authed := api.Group("", h.requireToken)
	authed.Post("/getAllUser", h.listUsers)
	authed.Post("/reported-user-list", h.listReported)
	authed.Post("/list-all-post", h.listPosts)
	authed.Post("/like", h.like)
	authed.Post("/block-by-admin", h.setBlocked(true, "User blocked successfully"))
	authed.Post("/unblock-by-admin", h.setBlocked(false, "User unblocked successfully"))
	authed.Post("/delete-by-admin", h.deleteUser)
	authed.Post("/search-category-for-add-product", h.categories)
	authed.Post("/addProduct", h.addProduct)

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{"success": "false", "message": err.Error()})
}

func ok(c *fiber.Ctx, m fiber.Map) error {
	m["success"] = "true"
	return c.JSON(m)
}

func fail(c *fiber.Ctx, message string) error {
	return c.JSON(fiber.Map{"success": "false", "message": message})
}

type handlers struct {
	ds *Dataset
}

func (h *handlers) requireToken(c *fiber.Ctx) error {
	token, found := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !found || !h.ds.ValidToken(strings.TrimSpace(token)) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": "false", "message": "Unauthorized"})
	}
	return c.Next()
}

func (h *handlers) adminLogin(c *fiber.Ctx) error {
	var req struct {
		AdminID       string `json:"admin_id"`
		AdminPassword string `json:"admin_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	token, valid := h.ds.Login(req.AdminID, req.AdminPassword)
	if !valid {
		return fail(c, "Invalid email or password")
	}
	return ok(c, fiber.Map{
		"message": "Login successful",
		"token":   token,
		"isAdmin": fiber.Map{
			"admin_name":  h.ds.admin.name,
			"profile_pic": h.ds.admin.pic,
			"email_id":    h.ds.admin.email,
		},
	})
}

type pageRequest struct {
	Page     int `json:"page"`
	Limit    int `json:"limit"`
	PageSize int `json:"pageSize"`
}

func (h *handlers) listUsers(c *fiber.Ctx) error {
	var req pageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	users, p := h.ds.Users(req.Page, req.Limit)
	return ok(c, fiber.Map{"allUsers": users, "pagination": p})
}

func (h *handlers) listReported(c *fiber.Ctx) error {
	var req pageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	reports, p := h.ds.ReportedUsers(req.Page, req.PageSize)
	if p.Total == 0 {
		return fail(c, "No reported users found")
	}
	return ok(c, fiber.Map{"isReportedUsers": reports, "pagination": p})
}

func (h *handlers) listPosts(c *fiber.Ctx) error {
	var req pageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	posts, p := h.ds.Posts(req.Page, req.Limit)
	return ok(c, fiber.Map{
		"data":        posts,
		"currentPage": p.Page,
		"totalPages":  p.Pages,
		"totalPosts":  p.Total,
	})
}

func (h *handlers) like(c *fiber.Ctx) error {
	var req struct {
		PostID int64 `json:"post_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	liked, err := h.ds.ToggleLike(req.PostID)
	if err != nil {
		return fail(c, err.Error())
	}
	msg := "Post unliked"
	if liked {
		msg = "Post liked"
	}
	return ok(c, fiber.Map{"message": msg})
}

type userRequest struct {
	UserID int64 `json:"user_id"`
}

func (h *handlers) setBlocked(blocked bool, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req userRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := h.ds.SetBlocked(req.UserID, blocked); err != nil {
			return fail(c, err.Error())
		}
		return ok(c, fiber.Map{"message": message})
	}
}

func (h *handlers) deleteUser(c *fiber.Ctx) error {
	var req userRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.ds.DeleteUser(req.UserID); err != nil {
		return fail(c, err.Error())
	}
	return ok(c, fiber.Map{"message": "User deleted successfully"})
}

func (h *handlers) categories(c *fiber.Ctx) error {
	return ok(c, fiber.Map{"isCategory": h.ds.Categories()})
}

func (h *handlers) addProduct(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Expected multipart form data")
	}
	value := func(name string) string {
		if v := form.Value[name]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	files := form.File["files"]
	if len(files) == 0 {
		return fail(c, "No Image Uploaded")
	}
	draft := models.ProductDraft{
		Name:           value("Product_name"),
		Description:    value("Product_desc"),
		AdditionalDesc: value("Additional_desc"),
	}
	if draft.Name == "" {
		return fail(c, "Product name is required")
	}
	draft.CategoryID, _ = strconv.ParseInt(value("categorySelect"), 10, 64)
	draft.OriginalPrice, _ = strconv.ParseFloat(value("original_price"), 64)
	draft.SalePrice, _ = strconv.ParseFloat(value("sale_price"), 64)
	draft.InStock, _ = strconv.Atoi(value("in_stock"))

	names := make([]string, 0, len(files))
	for _, fh := range files {
		names = append(names, fh.Filename)
	}
	id, err := h.ds.AddProduct(draft, names)
	if err != nil {
		return fail(c, err.Error())
	}
	return ok(c, fiber.Map{"message": "Product added successfully", "product_id": id})
}
