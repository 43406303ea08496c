package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// VariantStatus is the sellable state of a variant.
type VariantStatus string

const (
	VariantStatusActive     VariantStatus = "active"
	VariantStatusInactive   VariantStatus = "inactive"
	VariantStatusOutOfStock VariantStatus = "out_of_stock"
)

func (s VariantStatus) Valid() bool {
	switch s {
	case VariantStatusActive, VariantStatusInactive, VariantStatusOutOfStock:
		return true
	}
	return false
}

// MaxSKULength bounds Variant.SKU.
const MaxSKULength = 50

// Variant is a purchasable configuration of a product with its own SKU,
// price and stock.
type Variant struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	ImageURL      *string         `json:"image_url,omitempty"`
	IsDefault     bool            `json:"is_default"`
	Status        VariantStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Attributes []VariantAttribute `json:"attributes,omitempty"`
}

// InStock reports whether any units are on hand.
func (v *Variant) InStock() bool {
	return v.StockQuantity > 0
}

// ReconcileStockStatus brings Status in line with StockQuantity: an empty
// variant is out_of_stock, and an out_of_stock variant that was restocked
// becomes active again. Inactive variants with stock stay inactive.
// It reports whether Status changed.
func (v *Variant) ReconcileStockStatus() bool {
	switch {
	case v.StockQuantity <= 0 && v.Status != VariantStatusOutOfStock:
		v.Status = VariantStatusOutOfStock
		return true
	case v.StockQuantity > 0 && v.Status == VariantStatusOutOfStock:
		v.Status = VariantStatusActive
		return true
	}
	return false
}

// VariantFilter narrows a variant listing for one product.
type VariantFilter struct {
	Status    *VariantStatus
	InStock   *bool
	IsDefault *bool
}

// Match reports whether v passes the filter.
func (f VariantFilter) Match(v *Variant) bool {
	if f.Status != nil && v.Status != *f.Status {
		return false
	}
	if f.InStock != nil && v.InStock() != *f.InStock {
		return false
	}
	if f.IsDefault != nil && v.IsDefault != *f.IsDefault {
		return false
	}
	return true
}
