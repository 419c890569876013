package models

// Category is a product category offered by the catalog search.
type Category struct {
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
}

// Variant is one color/size/type combination of a product.
type Variant struct {
	Color string `json:"color"`
	Size  string `json:"size"`
	Type  string `json:"type"`
}

// ProductType is a named product type entry.
type ProductType struct {
	Name string `json:"name"`
}

// ProductDraft holds the structured fields of the product creation form.
type ProductDraft struct {
	Name           string        `json:"Product_name"`
	CategoryID     int64         `json:"categorySelect"`
	Description    string        `json:"Product_desc"`
	AdditionalDesc string        `json:"Additional_desc"`
	OriginalPrice  float64       `json:"original_price"`
	SalePrice      float64       `json:"sale_price"`
	InStock        int           `json:"in_stock"`
	Variants       []Variant     `json:"variants,omitempty"`
	Types          []ProductType `json:"types,omitempty"`
}
