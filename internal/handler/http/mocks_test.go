package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anchorhub/backoffice/internal/domain"
	"github.com/anchorhub/backoffice/internal/service"
	"github.com/anchorhub/backoffice/pkg/health"
	"github.com/anchorhub/backoffice/pkg/httputil"
	"github.com/anchorhub/backoffice/pkg/middleware"
)

// =============================================================================
// Mock AddressService
// =============================================================================

type mockAddresses struct {
	mock.Mock
}

func (m *mockAddresses) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Address), args.Error(1)
}

func (m *mockAddresses) GetAddress(ctx context.Context, userID, addressID string) (*domain.Address, error) {
	args := m.Called(ctx, userID, addressID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *mockAddresses) CreateAddress(ctx context.Context, userID string, input *service.CreateAddressInput) (*domain.Address, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *mockAddresses) SetPrimary(ctx context.Context, userID, addressID string) (*domain.Address, error) {
	args := m.Called(ctx, userID, addressID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *mockAddresses) UpdateAddress(ctx context.Context, userID, addressID string, input *service.UpdateAddressInput) (*domain.Address, error) {
	args := m.Called(ctx, userID, addressID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *mockAddresses) DeleteAddress(ctx context.Context, userID, addressID string) error {
	return m.Called(ctx, userID, addressID).Error(0)
}

// =============================================================================
// Mock PricingService
// =============================================================================

type mockPricing struct {
	mock.Mock
}

func (m *mockPricing) ProductSummary(ctx context.Context, productID string) (*domain.ProductSummary, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductSummary), args.Error(1)
}

func (m *mockPricing) ListProductSummaries(ctx context.Context, filter domain.ProductFilter) ([]domain.ProductSummary, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ProductSummary), args.Int(1), args.Error(2)
}

func (m *mockPricing) UpdateStock(ctx context.Context, variantID string, quantity int) (*domain.Variant, error) {
	args := m.Called(ctx, variantID, quantity)
	return variantOrNil(args)
}

func (m *mockPricing) ReduceStock(ctx context.Context, variantID string, amount int) (*domain.Variant, error) {
	args := m.Called(ctx, variantID, amount)
	return variantOrNil(args)
}

func (m *mockPricing) IncreaseStock(ctx context.Context, variantID string, amount int) (*domain.Variant, error) {
	args := m.Called(ctx, variantID, amount)
	return variantOrNil(args)
}

func variantOrNil(args mock.Arguments) (*domain.Variant, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Variant), args.Error(1)
}

// =============================================================================
// Mock catalog (ProductAdmin + TaxonomyAdmin)
// =============================================================================

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) CreateProduct(ctx context.Context, input *service.CreateProductInput) (*domain.Product, error) {
	args := m.Called(ctx, input)
	return productOrNil(args)
}

func (m *mockCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	return productOrNil(args)
}

func (m *mockCatalog) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockCatalog) UpdateProduct(ctx context.Context, id string, input *service.UpdateProductInput) (*domain.Product, error) {
	args := m.Called(ctx, id, input)
	return productOrNil(args)
}

func (m *mockCatalog) DeleteProduct(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func productOrNil(args mock.Arguments) (*domain.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockCatalog) GetVariant(ctx context.Context, id string) (*domain.Variant, error) {
	return variantOrNil(m.Called(ctx, id))
}

func (m *mockCatalog) ListVariants(ctx context.Context, productID string, filter domain.VariantFilter) ([]domain.Variant, error) {
	args := m.Called(ctx, productID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Variant), args.Error(1)
}

func (m *mockCatalog) CreateVariant(ctx context.Context, productID string, input *service.CreateVariantInput) (*domain.Variant, error) {
	return variantOrNil(m.Called(ctx, productID, input))
}

func (m *mockCatalog) CreateDefaultVariant(ctx context.Context, productID string, input *service.CreateDefaultVariantInput) (*domain.Variant, bool, error) {
	args := m.Called(ctx, productID, input)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Variant), args.Bool(1), args.Error(2)
}

func (m *mockCatalog) UpdateVariant(ctx context.Context, id string, input *service.UpdateVariantInput) (*domain.Variant, error) {
	return variantOrNil(m.Called(ctx, id, input))
}

func (m *mockCatalog) DeleteVariant(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCatalog) BulkUpdateVariantStatus(ctx context.Context, productID string, variantIDs []string, status domain.VariantStatus) ([]domain.Variant, error) {
	args := m.Called(ctx, productID, variantIDs, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Variant), args.Error(1)
}

func (m *mockCatalog) CreateCategory(ctx context.Context, input *service.CategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCatalog) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCatalog) ListCategories(ctx context.Context, status *domain.RecordStatus) ([]domain.Category, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockCatalog) UpdateCategory(ctx context.Context, id string, input *service.UpdateCategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCatalog) DeleteCategory(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCatalog) CreateAttribute(ctx context.Context, input *service.AttributeInput) (*domain.Attribute, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attribute), args.Error(1)
}

func (m *mockCatalog) GetAttribute(ctx context.Context, id string) (*domain.Attribute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attribute), args.Error(1)
}

func (m *mockCatalog) ListAttributes(ctx context.Context) ([]domain.Attribute, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Attribute), args.Error(1)
}

func (m *mockCatalog) UpdateAttribute(ctx context.Context, id string, input *service.UpdateAttributeInput) (*domain.Attribute, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attribute), args.Error(1)
}

func (m *mockCatalog) DeleteAttribute(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCatalog) CreateAttributeValue(ctx context.Context, attributeID string, input *service.AttributeValueInput) (*domain.AttributeValue, error) {
	args := m.Called(ctx, attributeID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttributeValue), args.Error(1)
}

func (m *mockCatalog) ListAttributeValues(ctx context.Context, attributeID string) ([]domain.AttributeValue, error) {
	args := m.Called(ctx, attributeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AttributeValue), args.Error(1)
}

func (m *mockCatalog) UpdateAttributeValue(ctx context.Context, id string, input *service.UpdateAttributeValueInput) (*domain.AttributeValue, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttributeValue), args.Error(1)
}

func (m *mockCatalog) DeleteAttributeValue(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCatalog) AttachProductAttribute(ctx context.Context, productID, attributeID, valueID string) (*domain.ProductAttribute, error) {
	args := m.Called(ctx, productID, attributeID, valueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductAttribute), args.Error(1)
}

func (m *mockCatalog) ListProductAttributes(ctx context.Context, productID string) ([]domain.ProductAttribute, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductAttribute), args.Error(1)
}

func (m *mockCatalog) DetachProductAttribute(ctx context.Context, productID, linkID string) error {
	return m.Called(ctx, productID, linkID).Error(0)
}

func (m *mockCatalog) AttachVariantAttribute(ctx context.Context, variantID, attributeID, valueID string) (*domain.VariantAttribute, error) {
	args := m.Called(ctx, variantID, attributeID, valueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VariantAttribute), args.Error(1)
}

func (m *mockCatalog) ListVariantAttributes(ctx context.Context, variantID string) ([]domain.VariantAttribute, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VariantAttribute), args.Error(1)
}

func (m *mockCatalog) DetachVariantAttribute(ctx context.Context, variantID, linkID string) error {
	return m.Called(ctx, variantID, linkID).Error(0)
}

var (
	_ AddressService = (*mockAddresses)(nil)
	_ PricingService = (*mockPricing)(nil)
	_ ProductAdmin   = (*mockCatalog)(nil)
	_ TaxonomyAdmin  = (*mockCatalog)(nil)
)

// =============================================================================
// Test helpers
// =============================================================================

const (
	customerToken = "customer-token"
	adminToken    = "admin-token"
	customerID    = "user-1"
)

var errBadToken = errors.New("bad token")

func stubValidator(token string) (*middleware.Claims, error) {
	switch token {
	case customerToken:
		return &middleware.Claims{UserID: customerID, Role: "customer"}, nil
	case adminToken:
		return &middleware.Claims{UserID: "admin-1", Role: RoleAdmin}, nil
	}
	return nil, errBadToken
}

type testServer struct {
	addresses *mockAddresses
	pricing   *mockPricing
	catalog   *mockCatalog
	handler   http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		addresses: &mockAddresses{},
		pricing:   &mockPricing{},
		catalog:   &mockCatalog{},
	}
	ts.handler = NewRouter(Services{
		Addresses: ts.addresses,
		Pricing:   ts.pricing,
		Products:  ts.catalog,
		Taxonomy:  ts.catalog,
	}, stubValidator, health.NewHandler(), slog.New(slog.NewTextHandler(io.Discard, nil)), Options{CORS: middleware.DefaultCORSConfig()})

	t.Cleanup(func() {
		ts.addresses.AssertExpectations(t)
		ts.pricing.AssertExpectations(t)
		ts.catalog.AssertExpectations(t)
	})
	return ts
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		buf, _ := json.Marshal(b)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// decodeData re-decodes the data member of the envelope into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}
