package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/anchorhub/backoffice/internal/domain"
	"github.com/anchorhub/backoffice/internal/service"
	"github.com/anchorhub/backoffice/pkg/httputil"
	"github.com/anchorhub/backoffice/pkg/middleware"
)

// AddressHandler serves the caller's own address book.
type AddressHandler struct {
	service AddressService
	logger  *slog.Logger
}

// NewAddressHandler creates a new address HTTP handler.
func NewAddressHandler(svc AddressService, logger *slog.Logger) *AddressHandler {
	return &AddressHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateAddressRequest is the JSON request body for creating an address.
// Country defaults to Indonesia and address_type to Home.
type CreateAddressRequest struct {
	AddressLine string `json:"address_line" validate:"required,max=500"`
	City        string `json:"city" validate:"required,max=100"`
	State       string `json:"state" validate:"required,max=100"`
	PostalCode  string `json:"postal_code" validate:"required,max=20"`
	Country     string `json:"country" validate:"omitempty,max=100"`
	PhoneNumber string `json:"phone_number" validate:"required,max=20"`
	AddressType string `json:"address_type" validate:"omitempty,oneof=Home Office Other"`
	IsPrimary   bool   `json:"is_primary"`
}

// UpdateAddressRequest is the JSON request body for updating an address.
type UpdateAddressRequest struct {
	AddressLine *string `json:"address_line" validate:"omitempty,min=1,max=500"`
	City        *string `json:"city" validate:"omitempty,min=1,max=100"`
	State       *string `json:"state" validate:"omitempty,min=1,max=100"`
	PostalCode  *string `json:"postal_code" validate:"omitempty,min=1,max=20"`
	Country     *string `json:"country" validate:"omitempty,min=1,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,min=1,max=20"`
	AddressType *string `json:"address_type" validate:"omitempty,oneof=Home Office Other"`
	IsPrimary   *bool   `json:"is_primary"`
}

// --- Handlers ---

// ListAddresses handles GET /api/v1/me/addresses
func (h *AddressHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	addresses, err := h.service.ListAddresses(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if addresses == nil {
		addresses = []domain.Address{}
	}

	httputil.WriteData(w, http.StatusOK, addresses)
}

// GetAddress handles GET /api/v1/me/addresses/{id}
func (h *AddressHandler) GetAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	address, err := h.service.GetAddress(r.Context(), userID, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, address)
}

// CreateAddress handles POST /api/v1/me/addresses
func (h *AddressHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req CreateAddressRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	input := &service.CreateAddressInput{
		AddressLine: req.AddressLine,
		City:        req.City,
		State:       req.State,
		PostalCode:  req.PostalCode,
		Country:     req.Country,
		PhoneNumber: req.PhoneNumber,
		AddressType: domain.AddressType(req.AddressType),
		IsPrimary:   req.IsPrimary,
	}

	address, err := h.service.CreateAddress(r.Context(), userID, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, address)
}

// UpdateAddress handles PUT /api/v1/me/addresses/{id}
func (h *AddressHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateAddressRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	input := &service.UpdateAddressInput{
		AddressLine: req.AddressLine,
		City:        req.City,
		State:       req.State,
		PostalCode:  req.PostalCode,
		Country:     req.Country,
		PhoneNumber: req.PhoneNumber,
		IsPrimary:   req.IsPrimary,
	}
	if req.AddressType != nil {
		t := domain.AddressType(*req.AddressType)
		input.AddressType = &t
	}

	address, err := h.service.UpdateAddress(r.Context(), userID, id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, address)
}

// SetPrimary handles POST /api/v1/me/addresses/{id}/primary
func (h *AddressHandler) SetPrimary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	address, err := h.service.SetPrimary(r.Context(), userID, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, address)
}

// DeleteAddress handles DELETE /api/v1/me/addresses/{id}
func (h *AddressHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteAddress(r.Context(), userID, id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeDeleted(w, id.String())
}

func (h *AddressHandler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "user not authenticated"},
		})
		return "", false
	}
	return userID, true
}
