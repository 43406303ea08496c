package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/anchorhub/backoffice/internal/domain"
	"github.com/anchorhub/backoffice/internal/service"
	"github.com/anchorhub/backoffice/pkg/httputil"
)

// TaxonomyHandler handles categories, attributes, attribute values and the
// attribute links of products and variants.
type TaxonomyHandler struct {
	catalog TaxonomyAdmin
	logger  *slog.Logger
}

// NewTaxonomyHandler creates a new taxonomy HTTP handler.
func NewTaxonomyHandler(catalog TaxonomyAdmin, logger *slog.Logger) *TaxonomyHandler {
	return &TaxonomyHandler{catalog: catalog, logger: logger}
}

// --- Request DTOs ---

// NamedRecordRequest creates a category or an attribute.
type NamedRecordRequest struct {
	Name   string `json:"name" validate:"required,max=255"`
	Status string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// UpdateNamedRecordRequest updates a category or an attribute.
type UpdateNamedRecordRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=255"`
	Status *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// AttributeValueRequest creates an attribute value.
type AttributeValueRequest struct {
	Value  string `json:"value" validate:"required,max=255"`
	Status string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// UpdateAttributeValueRequest updates an attribute value.
type UpdateAttributeValueRequest struct {
	Value  *string `json:"value" validate:"omitempty,min=1,max=255"`
	Status *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// AttachAttributeRequest links a product or variant to an attribute value.
type AttachAttributeRequest struct {
	AttributeID      string `json:"attribute_id" validate:"required,uuid"`
	AttributeValueID string `json:"attribute_value_id" validate:"required,uuid"`
}

func optionalRecordStatus(s *string) *domain.RecordStatus {
	if s == nil {
		return nil
	}
	status := domain.RecordStatus(*s)
	return &status
}

// --- Categories ---

// ListCategories handles GET /api/v1/admin/categories
// ?status=active narrows the list for pickers.
func (h *TaxonomyHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	var status *domain.RecordStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.RecordStatus(v)
		if !s.Valid() {
			writeInvalidParameter(w, "status must be one of: active, inactive")
			return
		}
		status = &s
	}

	categories, err := h.catalog.ListCategories(r.Context(), status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}

	httputil.WriteData(w, http.StatusOK, categories)
}

// GetCategory handles GET /api/v1/admin/categories/{id}
func (h *TaxonomyHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	category, err := h.catalog.GetCategory(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, category)
}

// CreateCategory handles POST /api/v1/admin/categories
func (h *TaxonomyHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req NamedRecordRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), &service.CategoryInput{
		Name:   req.Name,
		Status: domain.RecordStatus(req.Status),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, category)
}

// UpdateCategory handles PUT /api/v1/admin/categories/{id}
func (h *TaxonomyHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateNamedRecordRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	category, err := h.catalog.UpdateCategory(r.Context(), id.String(), &service.UpdateCategoryInput{
		Name:   req.Name,
		Status: optionalRecordStatus(req.Status),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/v1/admin/categories/{id}
func (h *TaxonomyHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeDeleted(w, id.String())
}

// --- Attributes ---

// ListAttributes handles GET /api/v1/admin/attributes
// Each attribute carries its value, product and variant usage counts.
func (h *TaxonomyHandler) ListAttributes(w http.ResponseWriter, r *http.Request) {
	attributes, err := h.catalog.ListAttributes(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if attributes == nil {
		attributes = []domain.Attribute{}
	}

	httputil.WriteData(w, http.StatusOK, attributes)
}

// GetAttribute handles GET /api/v1/admin/attributes/{id}
func (h *TaxonomyHandler) GetAttribute(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	attribute, err := h.catalog.GetAttribute(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, attribute)
}

// CreateAttribute handles POST /api/v1/admin/attributes
func (h *TaxonomyHandler) CreateAttribute(w http.ResponseWriter, r *http.Request) {
	var req NamedRecordRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	attribute, err := h.catalog.CreateAttribute(r.Context(), &service.AttributeInput{
		Name:   req.Name,
		Status: domain.RecordStatus(req.Status),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, attribute)
}

// UpdateAttribute handles PUT /api/v1/admin/attributes/{id}
func (h *TaxonomyHandler) UpdateAttribute(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateNamedRecordRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	attribute, err := h.catalog.UpdateAttribute(r.Context(), id.String(), &service.UpdateAttributeInput{
		Name:   req.Name,
		Status: optionalRecordStatus(req.Status),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, attribute)
}

// DeleteAttribute handles DELETE /api/v1/admin/attributes/{id}
func (h *TaxonomyHandler) DeleteAttribute(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.catalog.DeleteAttribute(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeDeleted(w, id.String())
}

// --- Attribute values ---

// ListAttributeValues handles GET /api/v1/admin/attributes/{id}/values
func (h *TaxonomyHandler) ListAttributeValues(w http.ResponseWriter, r *http.Request) {
	attributeID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	values, err := h.catalog.ListAttributeValues(r.Context(), attributeID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if values == nil {
		values = []domain.AttributeValue{}
	}

	httputil.WriteData(w, http.StatusOK, values)
}

// CreateAttributeValue handles POST /api/v1/admin/attributes/{id}/values
func (h *TaxonomyHandler) CreateAttributeValue(w http.ResponseWriter, r *http.Request) {
	attributeID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req AttributeValueRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	value, err := h.catalog.CreateAttributeValue(r.Context(), attributeID.String(), &service.AttributeValueInput{
		Value:  req.Value,
		Status: domain.RecordStatus(req.Status),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, value)
}

// UpdateAttributeValue handles PUT /api/v1/admin/attribute-values/{id}
func (h *TaxonomyHandler) UpdateAttributeValue(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateAttributeValueRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	value, err := h.catalog.UpdateAttributeValue(r.Context(), id.String(), &service.UpdateAttributeValueInput{
		Value:  req.Value,
		Status: optionalRecordStatus(req.Status),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, value)
}

// DeleteAttributeValue handles DELETE /api/v1/admin/attribute-values/{id}
func (h *TaxonomyHandler) DeleteAttributeValue(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.catalog.DeleteAttributeValue(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeDeleted(w, id.String())
}

// --- Product and variant attribute links ---

// ListProductAttributes handles GET /api/v1/admin/products/{id}/attributes
func (h *TaxonomyHandler) ListProductAttributes(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	links, err := h.catalog.ListProductAttributes(r.Context(), productID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if links == nil {
		links = []domain.ProductAttribute{}
	}

	httputil.WriteData(w, http.StatusOK, links)
}

// AttachProductAttribute handles POST /api/v1/admin/products/{id}/attributes
func (h *TaxonomyHandler) AttachProductAttribute(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req AttachAttributeRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	link, err := h.catalog.AttachProductAttribute(r.Context(), productID.String(), req.AttributeID, req.AttributeValueID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, link)
}

// DetachProductAttribute handles DELETE /api/v1/admin/products/{id}/attributes/{linkID}
func (h *TaxonomyHandler) DetachProductAttribute(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	linkID, ok := httputil.ParseUUID(w, chi.URLParam(r, "linkID"))
	if !ok {
		return
	}

	if err := h.catalog.DetachProductAttribute(r.Context(), productID.String(), linkID.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeDeleted(w, linkID.String())
}

// ListVariantAttributes handles GET /api/v1/admin/variants/{id}/attributes
func (h *TaxonomyHandler) ListVariantAttributes(w http.ResponseWriter, r *http.Request) {
	variantID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	links, err := h.catalog.ListVariantAttributes(r.Context(), variantID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if links == nil {
		links = []domain.VariantAttribute{}
	}

	httputil.WriteData(w, http.StatusOK, links)
}

// AttachVariantAttribute handles POST /api/v1/admin/variants/{id}/attributes
func (h *TaxonomyHandler) AttachVariantAttribute(w http.ResponseWriter, r *http.Request) {
	variantID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req AttachAttributeRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	link, err := h.catalog.AttachVariantAttribute(r.Context(), variantID.String(), req.AttributeID, req.AttributeValueID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, link)
}

// DetachVariantAttribute handles DELETE /api/v1/admin/variants/{id}/attributes/{linkID}
func (h *TaxonomyHandler) DetachVariantAttribute(w http.ResponseWriter, r *http.Request) {
	variantID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	linkID, ok := httputil.ParseUUID(w, chi.URLParam(r, "linkID"))
	if !ok {
		return
	}

	if err := h.catalog.DetachVariantAttribute(r.Context(), variantID.String(), linkID.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeDeleted(w, linkID.String())
}
