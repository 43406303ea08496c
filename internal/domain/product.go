package domain

import "time"

// ProductStatus is the lifecycle status of a product.
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDraft        ProductStatus = "draft"
	ProductStatusOutOfStock   ProductStatus = "out_of_stock"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusActive, ProductStatusInactive, ProductStatusDraft,
		ProductStatusOutOfStock, ProductStatusDiscontinued:
		return true
	}
	return false
}

// Product is a catalog item sold through one or more variants.
type Product struct {
	ID          string        `json:"id"`
	CategoryID  *string       `json:"category_id,omitempty"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProductStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Variants   []Variant          `json:"variants,omitempty"`
	Attributes []ProductAttribute `json:"attributes,omitempty"`
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	Status     *ProductStatus
	CategoryID *string
	Search     string
	Page       int
	PerPage    int
}
