package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anchorhub/backoffice/internal/domain"
	"github.com/anchorhub/backoffice/internal/service"
	"github.com/anchorhub/backoffice/pkg/httputil"
	"github.com/anchorhub/backoffice/pkg/pagination"
)

// ProductAdminHandler handles the admin product and variant endpoints.
type ProductAdminHandler struct {
	catalog ProductAdmin
	pricing PricingService
	logger  *slog.Logger
}

// NewProductAdminHandler creates a new admin product HTTP handler.
func NewProductAdminHandler(catalog ProductAdmin, pricing PricingService, logger *slog.Logger) *ProductAdminHandler {
	return &ProductAdminHandler{catalog: catalog, pricing: pricing, logger: logger}
}

// --- Request DTOs ---

// CreateProductRequest is the JSON request body for creating a product.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description"`
	CategoryID  *string `json:"category_id" validate:"omitempty,uuid"`
	Status      string  `json:"status" validate:"omitempty,oneof=active inactive draft out_of_stock discontinued"`
}

// UpdateProductRequest is the JSON request body for updating a product.
// An empty category_id detaches the product from its category.
type UpdateProductRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	CategoryID  *string `json:"category_id"`
	Status      *string `json:"status" validate:"omitempty,oneof=active inactive draft out_of_stock discontinued"`
}

// CreateVariantRequest is the JSON request body for creating a variant.
type CreateVariantRequest struct {
	SKU           string          `json:"sku" validate:"required,max=50"`
	Price         decimal.Decimal `json:"price" validate:"gte=0"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
	ImageURL      *string         `json:"image_url" validate:"omitempty,max=2048"`
	IsDefault     bool            `json:"is_default"`
	Status        string          `json:"status" validate:"omitempty,oneof=active inactive out_of_stock"`
}

// UpdateVariantRequest is the JSON request body for updating a variant.
// An empty image_url removes the image.
type UpdateVariantRequest struct {
	SKU           *string          `json:"sku" validate:"omitempty,min=1,max=50"`
	Price         *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	StockQuantity *int             `json:"stock_quantity" validate:"omitempty,gte=0"`
	ImageURL      *string          `json:"image_url" validate:"omitempty,max=2048"`
	IsDefault     *bool            `json:"is_default"`
	Status        *string          `json:"status" validate:"omitempty,oneof=active inactive out_of_stock"`
}

// CreateDefaultVariantRequest is the JSON request body for ensuring a default variant.
type CreateDefaultVariantRequest struct {
	Price         decimal.Decimal `json:"price" validate:"gte=0"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
	SKU           string          `json:"sku" validate:"omitempty,max=50"`
}

// BulkVariantStatusRequest is the JSON request body for a bulk status change.
type BulkVariantStatusRequest struct {
	VariantIDs []string `json:"variant_ids" validate:"required,min=1,dive,uuid"`
	Status     string   `json:"status" validate:"required,oneof=active inactive out_of_stock"`
}

// Stock actions accepted by ChangeStock.
const (
	StockActionSet      = "set"
	StockActionIncrease = "increase"
	StockActionReduce   = "reduce"
)

// StockChangeRequest is the JSON request body for a stock change.
type StockChangeRequest struct {
	Action   string `json:"action" validate:"required,oneof=set increase reduce"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

// --- Products ---

// ListProducts handles GET /api/v1/admin/products
func (h *ProductAdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseProductFilter(w, r)
	if !ok {
		return
	}

	products, total, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(products, total, pagination.Params{
		Page:    filter.Page,
		PerPage: filter.PerPage,
	}))
}

// GetProduct handles GET /api/v1/admin/products/{id}
func (h *ProductAdminHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// CreateProduct handles POST /api/v1/admin/products
func (h *ProductAdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	input := &service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Status:      domain.ProductStatus(req.Status),
	}

	product, err := h.catalog.CreateProduct(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/admin/products/{id}
func (h *ProductAdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateProductRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		if _, err := uuid.Parse(*req.CategoryID); err != nil {
			writeInvalidParameter(w, "category_id must be a UUID")
			return
		}
	}

	input := &service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	}
	if req.Status != nil {
		s := domain.ProductStatus(*req.Status)
		input.Status = &s
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/admin/products/{id}
func (h *ProductAdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeDeleted(w, id.String())
}

// --- Variants ---

// ListVariants handles GET /api/v1/admin/products/{id}/variants
func (h *ProductAdminHandler) ListVariants(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	filter, ok := parseVariantFilter(w, r)
	if !ok {
		return
	}

	variants, err := h.catalog.ListVariants(r.Context(), productID.String(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if variants == nil {
		variants = []domain.Variant{}
	}

	httputil.WriteData(w, http.StatusOK, variants)
}

// GetVariant handles GET /api/v1/admin/variants/{id}
func (h *ProductAdminHandler) GetVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	variant, err := h.catalog.GetVariant(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, variant)
}

// CreateVariant handles POST /api/v1/admin/products/{id}/variants
func (h *ProductAdminHandler) CreateVariant(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req CreateVariantRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	input := &service.CreateVariantInput{
		SKU:           req.SKU,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		ImageURL:      req.ImageURL,
		IsDefault:     req.IsDefault,
		Status:        domain.VariantStatus(req.Status),
	}

	variant, err := h.catalog.CreateVariant(r.Context(), productID.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, variant)
}

// CreateDefaultVariant handles POST /api/v1/admin/products/{id}/variants/default
// Returns 201 when a variant was created and 200 when the existing default is returned.
func (h *ProductAdminHandler) CreateDefaultVariant(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req CreateDefaultVariantRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	variant, created, err := h.catalog.CreateDefaultVariant(r.Context(), productID.String(), &service.CreateDefaultVariantInput{
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		SKU:           req.SKU,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteData(w, status, variant)
}

// UpdateVariant handles PUT /api/v1/admin/variants/{id}
func (h *ProductAdminHandler) UpdateVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateVariantRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	input := &service.UpdateVariantInput{
		SKU:           req.SKU,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		ImageURL:      req.ImageURL,
		IsDefault:     req.IsDefault,
	}
	if req.Status != nil {
		s := domain.VariantStatus(*req.Status)
		input.Status = &s
	}

	variant, err := h.catalog.UpdateVariant(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, variant)
}

// DeleteVariant handles DELETE /api/v1/admin/variants/{id}
func (h *ProductAdminHandler) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.catalog.DeleteVariant(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeDeleted(w, id.String())
}

// BulkUpdateVariantStatus handles PUT /api/v1/admin/products/{id}/variants/status
func (h *ProductAdminHandler) BulkUpdateVariantStatus(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req BulkVariantStatusRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	variants, err := h.catalog.BulkUpdateVariantStatus(r.Context(), productID.String(), req.VariantIDs, domain.VariantStatus(req.Status))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, variants)
}

// ChangeStock handles POST /api/v1/admin/variants/{id}/stock
func (h *ProductAdminHandler) ChangeStock(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req StockChangeRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	var (
		variant *domain.Variant
		err     error
	)
	switch req.Action {
	case StockActionSet:
		variant, err = h.pricing.UpdateStock(r.Context(), id.String(), req.Quantity)
	case StockActionIncrease:
		variant, err = h.pricing.IncreaseStock(r.Context(), id.String(), req.Quantity)
	case StockActionReduce:
		variant, err = h.pricing.ReduceStock(r.Context(), id.String(), req.Quantity)
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, variant)
}
