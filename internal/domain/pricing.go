package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

func init() {
	// Every price leaves the service as a JSON number, matching PriceDisplay.
	decimal.MarshalJSONWithoutQuotes = true
}

// PriceDisplay is either a single price or a min/max range. It marshals to a
// bare JSON number or to {"min":..,"max":..}.
type PriceDisplay struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// SinglePrice returns a PriceDisplay with Min == Max == p.
func SinglePrice(p decimal.Decimal) PriceDisplay {
	return PriceDisplay{Min: p, Max: p}
}

// IsRange reports whether Min and Max differ.
func (p PriceDisplay) IsRange() bool {
	return !p.Min.Equal(p.Max)
}

func (p PriceDisplay) MarshalJSON() ([]byte, error) {
	if !p.IsRange() {
		return []byte(p.Min.String()), nil
	}
	return json.Marshal(struct {
		Min json.RawMessage `json:"min"`
		Max json.RawMessage `json:"max"`
	}{
		Min: json.RawMessage(p.Min.String()),
		Max: json.RawMessage(p.Max.String()),
	})
}

func (p *PriceDisplay) UnmarshalJSON(b []byte) error {
	var single decimal.Decimal
	if err := single.UnmarshalJSON(b); err == nil {
		*p = SinglePrice(single)
		return nil
	}
	var r struct {
		Min decimal.Decimal `json:"min"`
		Max decimal.Decimal `json:"max"`
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	p.Min, p.Max = r.Min, r.Max
	return nil
}

func activeVariants(variants []Variant) []Variant {
	active := make([]Variant, 0, len(variants))
	for _, v := range variants {
		if v.Status == VariantStatusActive {
			active = append(active, v)
		}
	}
	return active
}

func defaultVariant(variants []Variant) *Variant {
	for i := range variants {
		if variants[i].IsDefault {
			return &variants[i]
		}
	}
	return nil
}

// DisplayPrice derives the price shown for a product from its variants.
// With more than one active variant it is the min/max range of their prices
// (collapsed to a single price when equal). Otherwise it is the default
// variant's price, then the lone active variant's price, then zero.
func DisplayPrice(variants []Variant) PriceDisplay {
	active := activeVariants(variants)

	if len(active) > 1 {
		lo, hi := active[0].Price, active[0].Price
		for _, v := range active[1:] {
			lo = decimal.Min(lo, v.Price)
			hi = decimal.Max(hi, v.Price)
		}
		return PriceDisplay{Min: lo, Max: hi}
	}

	if d := defaultVariant(variants); d != nil {
		return SinglePrice(d.Price)
	}
	if len(active) == 1 {
		return SinglePrice(active[0].Price)
	}
	return SinglePrice(decimal.Zero)
}

// AvailableStock is the summed stock of active variants when there is more
// than one, otherwise the default variant's stock, otherwise zero.
func AvailableStock(variants []Variant) int {
	active := activeVariants(variants)

	if len(active) > 1 {
		total := 0
		for _, v := range active {
			total += v.StockQuantity
		}
		return total
	}

	if d := defaultVariant(variants); d != nil {
		return d.StockQuantity
	}
	return 0
}

// ProductSummary is the public view of a product.
type ProductSummary struct {
	Product        Product      `json:"product"`
	DisplayPrice   PriceDisplay `json:"display_price"`
	AvailableStock int          `json:"available_stock"`
}

// Summarize computes the summary of p from its variants.
func Summarize(p Product, variants []Variant) ProductSummary {
	p.Variants = nil
	return ProductSummary{
		Product:        p,
		DisplayPrice:   DisplayPrice(variants),
		AvailableStock: AvailableStock(variants),
	}
}
