package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/anchorhub/backoffice/internal/domain"
	apperrors "github.com/anchorhub/backoffice/pkg/errors"
	"github.com/anchorhub/backoffice/pkg/httputil"
	"github.com/anchorhub/backoffice/pkg/pagination"
)

// CatalogHandler serves the public storefront view of products.
type CatalogHandler struct {
	pricing PricingService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(pricing PricingService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{pricing: pricing, logger: logger}
}

// ListProducts handles GET /api/v1/catalog/products
// Only active products are listed. Supports page, per_page, category_id and search.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseProductFilter(w, r)
	if !ok {
		return
	}
	active := domain.ProductStatusActive
	filter.Status = &active

	summaries, total, err := h.pricing.ListProductSummaries(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(summaries, total, pagination.Params{
		Page:    filter.Page,
		PerPage: filter.PerPage,
	}))
}

// GetProduct handles GET /api/v1/catalog/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	summary, err := h.pricing.ProductSummary(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if summary.Product.Status != domain.ProductStatusActive {
		httputil.WriteError(w, r, apperrors.NotFound("product", id.String()), h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, summary)
}

// parseProductFilter reads paging, category_id, status and search.
func parseProductFilter(w http.ResponseWriter, r *http.Request) (domain.ProductFilter, bool) {
	q := r.URL.Query()
	page := pagination.FromRequest(r)
	filter := domain.ProductFilter{
		Search:  q.Get("search"),
		Page:    page.Page,
		PerPage: page.PerPage,
	}

	if v := q.Get("category_id"); v != "" {
		id, ok := httputil.ParseUUID(w, v)
		if !ok {
			return filter, false
		}
		s := id.String()
		filter.CategoryID = &s
	}
	if v := q.Get("status"); v != "" {
		status := domain.ProductStatus(v)
		if !status.Valid() {
			writeInvalidParameter(w, "status must be one of: active, inactive, draft, out_of_stock, discontinued")
			return filter, false
		}
		filter.Status = &status
	}

	return filter, true
}

// parseVariantFilter reads status, in_stock and is_default.
func parseVariantFilter(w http.ResponseWriter, r *http.Request) (domain.VariantFilter, bool) {
	q := r.URL.Query()
	var filter domain.VariantFilter

	if v := q.Get("status"); v != "" {
		status := domain.VariantStatus(v)
		if !status.Valid() {
			writeInvalidParameter(w, "status must be one of: active, inactive, out_of_stock")
			return filter, false
		}
		filter.Status = &status
	}
	for name, dst := range map[string]**bool{"in_stock": &filter.InStock, "is_default": &filter.IsDefault} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeInvalidParameter(w, name+" must be a boolean")
			return filter, false
		}
		*dst = &b
	}

	return filter, true
}
