package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/cache"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/featureflags"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/media"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/upstream"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/views"

	"github.com/gofiber/fiber/v2"
)

// GetCategories handles GET /api/admin/products/categories. The list is fetched once per
// workspace and shared across workspaces through Redis.
func (s *Server) GetCategories(c *fiber.Ctx) error {
	form := s.workspace(c).Product
	if cats, loaded := form.Categories(); loaded && !c.QueryBool("refresh") {
		return c.JSON(fiber.Map{"categories": cats})
	}

	ctx := c.UserContext()
	if c.QueryBool("refresh") {
		cache.Invalidate(ctx, s.redis, cache.CategoriesKey)
	}

	var cats []models.Category
	err := cache.CacheAside(ctx, s.redis, cache.CategoriesKey, &cats, cache.CategoriesTTL, func() error {
		var err error
		cats, err = s.upstream.SearchCategories(ctx)
		return err
	})
	if err != nil {
		return models.RespondWithAppError(c, upstream.AsAppError("categories", err))
	}
	form.SetCategories(cats)
	return c.JSON(fiber.Map{"categories": cats})
}

// GetProductDraft handles GET /api/admin/products/draft
func (s *Server) GetProductDraft(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"draft":    s.workspace(c).Product.Draft(),
		"variants": s.featureEnabled(c, featureflags.ProductVariants),
	})
}

// PatchProductDraft handles PATCH /api/admin/products/draft. Setting original_price also
// sets sale_price unless the same patch carries an explicit sale_price.
func (s *Server) PatchProductDraft(c *fiber.Ctx) error {
	var patch views.DraftPatch
	if err := c.BodyParser(&patch); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	return c.JSON(fiber.Map{"draft": s.workspace(c).Product.Patch(patch)})
}

// AddProductVariant handles POST /api/admin/products/draft/variants
func (s *Server) AddProductVariant(c *fiber.Ctx) error {
	var v models.Variant
	if err := c.BodyParser(&v); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"draft": s.workspace(c).Product.AddVariant(v)})
}

// RemoveProductVariant handles DELETE /api/admin/products/draft/variants/:index
func (s *Server) RemoveProductVariant(c *fiber.Ctx) error {
	idx, err := s.parseIndex(c, "index")
	if err != nil {
		return nil
	}
	draft, err := s.workspace(c).Product.RemoveVariant(idx)
	if errors.Is(err, views.ErrIndexOutOfRange) {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Variant", idx))
	}
	return c.JSON(fiber.Map{"draft": draft})
}

// AddProductType handles POST /api/admin/products/draft/types
func (s *Server) AddProductType(c *fiber.Ctx) error {
	var t models.ProductType
	if err := c.BodyParser(&t); err != nil || strings.TrimSpace(t.Name) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Type name is required"))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"draft": s.workspace(c).Product.AddType(t)})
}

// RemoveProductType handles DELETE /api/admin/products/draft/types/:index
func (s *Server) RemoveProductType(c *fiber.Ctx) error {
	idx, err := s.parseIndex(c, "index")
	if err != nil {
		return nil
	}
	draft, err := s.workspace(c).Product.RemoveType(idx)
	if errors.Is(err, views.ErrIndexOutOfRange) {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Type", idx))
	}
	return c.JSON(fiber.Map{"draft": draft})
}

// SubmitProduct handles POST /api/admin/products (multipart/form-data). Form fields
// override the saved draft; images arrive in the files field. Nothing is sent upstream
// until validation passes.
func (s *Server) SubmitProduct(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid multipart form"))
	}
	product := s.workspace(c).Product
	headers := form.File["files"]
	if len(headers) == 0 {
		return rejectSubmission(c, models.NewValidationError(views.NoImageUploaded))
	}

	submitted, err := s.parseProductForm(c, form)
	if err != nil {
		return rejectSubmission(c, err)
	}
	draft := product.Merge(submitted)
	product.Save(draft)
	if err := product.ValidateSubmission(draft, len(headers)); err != nil {
		return rejectSubmission(c, err)
	}

	maxBytes := int64(s.config.ImageMaxUploadSizeMB) * 1024 * 1024
	files := make([]upstream.File, 0, len(headers))
	for _, fh := range headers {
		img, err := readImage(fh, s.config.ImageMaxDimension, maxBytes)
		if err != nil {
			return rejectSubmission(c, err)
		}
		files = append(files, upstream.File{
			Field:       "files",
			Name:        img.Filename,
			ContentType: img.ContentType,
			Content:     img.Content,
		})
	}

	message, err := s.upstream.AddProduct(c.UserContext(), draft, files)
	if err != nil {
		notice := models.Notice{Icon: models.IconError, Title: views.SubmitFailed, Text: views.SubmitUnavailable}
		if rej, ok := upstream.IsRejected(err); ok {
			notice.Text = rej.Message
		} else {
			observability.Logger.ErrorContext(c.UserContext(), "product submission failed",
				slog.String("error", err.Error()))
		}
		appErr := upstream.AsAppError("products", err)
		return c.Status(models.StatusFor(appErr)).JSON(fiber.Map{
			"error":  notice.Text,
			"notice": notice,
			"draft":  product.Draft(),
		})
	}

	product.Reset()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"notice":  models.Notice{Icon: models.IconSuccess, Title: views.SubmitSucceeded},
		"draft":   product.Draft(),
	})
}

// rejectSubmission renders a submission that never reached upstream.
func rejectSubmission(c *fiber.Ctx, err error) error {
	msg, code := errorMessage(err), models.CodeInternal
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	return c.Status(models.StatusFor(err)).JSON(fiber.Map{
		"error":  msg,
		"code":   code,
		"notice": models.Notice{Icon: models.IconError, Title: msg},
	})
}

// parseProductForm reads the draft fields of a submission. Empty fields are left zero so
// the saved draft shows through.
func (s *Server) parseProductForm(c *fiber.Ctx, form *multipart.Form) (models.ProductDraft, error) {
	value := func(key string) string {
		if vs := form.Value[key]; len(vs) > 0 {
			return strings.TrimSpace(vs[0])
		}
		return ""
	}

	d := models.ProductDraft{
		Name:           value("Product_name"),
		Description:    value("Product_desc"),
		AdditionalDesc: value("Additional_desc"),
	}

	var err error
	if v := value("categorySelect"); v != "" {
		if d.CategoryID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return d, models.NewValidationError("Invalid category")
		}
	}
	if v := value("original_price"); v != "" {
		if d.OriginalPrice, err = strconv.ParseFloat(v, 64); err != nil {
			return d, models.NewValidationError("Invalid original price")
		}
	}
	if v := value("sale_price"); v != "" {
		if d.SalePrice, err = strconv.ParseFloat(v, 64); err != nil {
			return d, models.NewValidationError("Invalid sale price")
		}
	}
	if v := value("in_stock"); v != "" {
		if d.InStock, err = strconv.Atoi(v); err != nil {
			return d, models.NewValidationError("Invalid stock count")
		}
	}

	if !s.featureEnabled(c, featureflags.ProductVariants) {
		return d, nil
	}
	if v := value("variants"); v != "" {
		if err := json.Unmarshal([]byte(v), &d.Variants); err != nil {
			return d, models.NewValidationError("Invalid variants")
		}
	}
	if v := value("types"); v != "" {
		if err := json.Unmarshal([]byte(v), &d.Types); err != nil {
			return d, models.NewValidationError("Invalid types")
		}
	}
	return d, nil
}

func readImage(fh *multipart.FileHeader, maxDim int, maxBytes int64) (*media.Image, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, models.NewValidationError(fh.Filename + " is too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return media.Normalize(media.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, maxDim, maxBytes)
}
