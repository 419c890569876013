package views

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
)

// Product form notices.
const (
	NoImageUploaded   = "No Image Uploaded"
	SubmitSucceeded   = "Form submitted successfully"
	SubmitFailed      = "Error submitting form"
	SubmitUnavailable = "An error occurred while submitting the form."
)

var ErrIndexOutOfRange = errors.New("index out of range")

// DraftPatch is a partial update of the product draft. Prices apply original first so a
// patch carrying both keeps the explicit sale price.
type DraftPatch struct {
	Name           *string  `json:"Product_name"`
	CategoryID     *int64   `json:"categorySelect"`
	Description    *string  `json:"Product_desc"`
	AdditionalDesc *string  `json:"Additional_desc"`
	OriginalPrice  *float64 `json:"original_price"`
	SalePrice      *float64 `json:"sale_price"`
	InStock        *int     `json:"in_stock"`
}

// ProductForm is the product creation draft of one admin.
type ProductForm struct {
	mu         sync.Mutex
	draft      models.ProductDraft
	categories []models.Category
	loaded     bool
	maxImages  int
}

func NewProductForm(maxImages int) *ProductForm {
	return &ProductForm{maxImages: maxImages}
}

// SetOriginalPrice sets the original price and mirrors it into the sale price. Resending
// the current price keeps an overridden sale price.
func (f *ProductForm) SetOriginalPrice(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v == f.draft.OriginalPrice {
		return
	}
	f.draft.OriginalPrice = v
	f.draft.SalePrice = v
}

// SetSalePrice overrides the sale price only.
func (f *ProductForm) SetSalePrice(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.SalePrice = v
}

// Patch applies the non-nil fields of p.
func (f *ProductForm) Patch(p DraftPatch) models.ProductDraft {
	if p.OriginalPrice != nil {
		f.SetOriginalPrice(*p.OriginalPrice)
	}
	if p.SalePrice != nil {
		f.SetSalePrice(*p.SalePrice)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if p.Name != nil {
		f.draft.Name = *p.Name
	}
	if p.CategoryID != nil {
		f.draft.CategoryID = *p.CategoryID
	}
	if p.Description != nil {
		f.draft.Description = *p.Description
	}
	if p.AdditionalDesc != nil {
		f.draft.AdditionalDesc = *p.AdditionalDesc
	}
	if p.InStock != nil {
		f.draft.InStock = *p.InStock
	}
	return f.snapshotLocked()
}

func (f *ProductForm) AddVariant(v models.Variant) models.ProductDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Variants = append(f.draft.Variants, v)
	return f.snapshotLocked()
}

func (f *ProductForm) RemoveVariant(i int) (models.ProductDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.draft.Variants) {
		return f.snapshotLocked(), ErrIndexOutOfRange
	}
	f.draft.Variants = append(f.draft.Variants[:i:i], f.draft.Variants[i+1:]...)
	return f.snapshotLocked(), nil
}

func (f *ProductForm) AddType(t models.ProductType) models.ProductDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Types = append(f.draft.Types, t)
	return f.snapshotLocked()
}

func (f *ProductForm) RemoveType(i int) (models.ProductDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.draft.Types) {
		return f.snapshotLocked(), ErrIndexOutOfRange
	}
	f.draft.Types = append(f.draft.Types[:i:i], f.draft.Types[i+1:]...)
	return f.snapshotLocked(), nil
}

// Draft returns a copy of the current draft.
func (f *ProductForm) Draft() models.ProductDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *ProductForm) snapshotLocked() models.ProductDraft {
	d := f.draft
	d.Variants = append([]models.Variant(nil), f.draft.Variants...)
	d.Types = append([]models.ProductType(nil), f.draft.Types...)
	return d
}

// Merge overlays a submitted form onto the draft: non-empty submitted values win.
func (f *ProductForm) Merge(submitted models.ProductDraft) models.ProductDraft {
	d := f.Draft()
	if s := strings.TrimSpace(submitted.Name); s != "" {
		d.Name = s
	}
	if submitted.CategoryID != 0 {
		d.CategoryID = submitted.CategoryID
	}
	if s := strings.TrimSpace(submitted.Description); s != "" {
		d.Description = s
	}
	if s := strings.TrimSpace(submitted.AdditionalDesc); s != "" {
		d.AdditionalDesc = s
	}
	if submitted.OriginalPrice != 0 && submitted.OriginalPrice != d.OriginalPrice {
		d.OriginalPrice = submitted.OriginalPrice
		d.SalePrice = submitted.OriginalPrice
	}
	if submitted.SalePrice != 0 {
		d.SalePrice = submitted.SalePrice
	}
	if submitted.InStock != 0 {
		d.InStock = submitted.InStock
	}
	if len(submitted.Variants) > 0 {
		d.Variants = submitted.Variants
	}
	if len(submitted.Types) > 0 {
		d.Types = submitted.Types
	}
	return d
}

// ValidateSubmission checks a draft before it is sent upstream. The image check runs first.
func (f *ProductForm) ValidateSubmission(d models.ProductDraft, imageCount int) error {
	if imageCount == 0 {
		return models.NewValidationError(NoImageUploaded)
	}
	if f.maxImages > 0 && imageCount > f.maxImages {
		return models.NewValidationError(fmt.Sprintf("At most %d images can be uploaded", f.maxImages))
	}
	switch {
	case strings.TrimSpace(d.Name) == "":
		return models.NewValidationError("Product name is required")
	case d.CategoryID == 0:
		return models.NewValidationError("Category is required")
	case strings.TrimSpace(d.Description) == "":
		return models.NewValidationError("Description is required")
	case d.OriginalPrice < 0 || d.SalePrice < 0:
		return models.NewValidationError("Prices cannot be negative")
	case d.InStock < 0:
		return models.NewValidationError("Stock cannot be negative")
	}
	return nil
}

// Categories returns the cached category list and whether it was loaded.
func (f *ProductForm) Categories() ([]models.Category, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Category(nil), f.categories...), f.loaded
}

// SetCategories caches the category list for the lifetime of the workspace.
func (f *ProductForm) SetCategories(c []models.Category) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories = append([]models.Category(nil), c...)
	f.loaded = true
}

// Save replaces the draft with d.
func (f *ProductForm) Save(d models.ProductDraft) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = d
	f.draft.Variants = append([]models.Variant(nil), d.Variants...)
	f.draft.Types = append([]models.ProductType(nil), d.Types...)
}

// Reset clears the draft after a successful submission. Categories are kept.
func (f *ProductForm) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = models.ProductDraft{}
}
