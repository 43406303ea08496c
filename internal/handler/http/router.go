package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anchorhub/backoffice/internal/domain"
	"github.com/anchorhub/backoffice/internal/service"
	"github.com/anchorhub/backoffice/pkg/health"
	"github.com/anchorhub/backoffice/pkg/middleware"
)

const serviceName = "backoffice"

// RoleAdmin is the token role allowed on /api/v1/admin.
const RoleAdmin = "admin"

// AddressService is the address book as seen by the HTTP layer.
type AddressService interface {
	ListAddresses(ctx context.Context, userID string) ([]domain.Address, error)
	GetAddress(ctx context.Context, userID, addressID string) (*domain.Address, error)
	CreateAddress(ctx context.Context, userID string, input *service.CreateAddressInput) (*domain.Address, error)
	SetPrimary(ctx context.Context, userID, addressID string) (*domain.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID string, input *service.UpdateAddressInput) (*domain.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID string) error
}

// PricingService serves product summaries and stock changes.
type PricingService interface {
	ProductSummary(ctx context.Context, productID string) (*domain.ProductSummary, error)
	ListProductSummaries(ctx context.Context, filter domain.ProductFilter) ([]domain.ProductSummary, int, error)
	UpdateStock(ctx context.Context, variantID string, quantity int) (*domain.Variant, error)
	ReduceStock(ctx context.Context, variantID string, amount int) (*domain.Variant, error)
	IncreaseStock(ctx context.Context, variantID string, amount int) (*domain.Variant, error)
}

// ProductAdmin manages products and their variants.
type ProductAdmin interface {
	CreateProduct(ctx context.Context, input *service.CreateProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)
	UpdateProduct(ctx context.Context, id string, input *service.UpdateProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	GetVariant(ctx context.Context, id string) (*domain.Variant, error)
	ListVariants(ctx context.Context, productID string, filter domain.VariantFilter) ([]domain.Variant, error)
	CreateVariant(ctx context.Context, productID string, input *service.CreateVariantInput) (*domain.Variant, error)
	CreateDefaultVariant(ctx context.Context, productID string, input *service.CreateDefaultVariantInput) (*domain.Variant, bool, error)
	UpdateVariant(ctx context.Context, id string, input *service.UpdateVariantInput) (*domain.Variant, error)
	DeleteVariant(ctx context.Context, id string) error
	BulkUpdateVariantStatus(ctx context.Context, productID string, variantIDs []string, status domain.VariantStatus) ([]domain.Variant, error)
}

// TaxonomyAdmin manages categories, attributes and attribute links.
type TaxonomyAdmin interface {
	CreateCategory(ctx context.Context, input *service.CategoryInput) (*domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	ListCategories(ctx context.Context, status *domain.RecordStatus) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, id string, input *service.UpdateCategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CreateAttribute(ctx context.Context, input *service.AttributeInput) (*domain.Attribute, error)
	GetAttribute(ctx context.Context, id string) (*domain.Attribute, error)
	ListAttributes(ctx context.Context) ([]domain.Attribute, error)
	UpdateAttribute(ctx context.Context, id string, input *service.UpdateAttributeInput) (*domain.Attribute, error)
	DeleteAttribute(ctx context.Context, id string) error

	CreateAttributeValue(ctx context.Context, attributeID string, input *service.AttributeValueInput) (*domain.AttributeValue, error)
	ListAttributeValues(ctx context.Context, attributeID string) ([]domain.AttributeValue, error)
	UpdateAttributeValue(ctx context.Context, id string, input *service.UpdateAttributeValueInput) (*domain.AttributeValue, error)
	DeleteAttributeValue(ctx context.Context, id string) error

	AttachProductAttribute(ctx context.Context, productID, attributeID, valueID string) (*domain.ProductAttribute, error)
	ListProductAttributes(ctx context.Context, productID string) ([]domain.ProductAttribute, error)
	DetachProductAttribute(ctx context.Context, productID, linkID string) error
	AttachVariantAttribute(ctx context.Context, variantID, attributeID, valueID string) (*domain.VariantAttribute, error)
	ListVariantAttributes(ctx context.Context, variantID string) ([]domain.VariantAttribute, error)
	DetachVariantAttribute(ctx context.Context, variantID, linkID string) error
}

// Services bundles everything the router dispatches to.
type Services struct {
	Addresses AddressService
	Pricing   PricingService
	Products  ProductAdmin
	Taxonomy  TaxonomyAdmin
}

// Options tunes the transport concerns of the router.
type Options struct {
	CORS middleware.CORSConfig
	// CatalogRPS caps public catalog reads per client; zero disables the cap.
	CatalogRPS   float64
	CatalogBurst int
}

// NewRouter creates a chi router with all back office routes registered.
func NewRouter(
	svc Services,
	tokenValidator middleware.TokenValidator,
	healthHandler *health.Handler,
	logger *slog.Logger,
	opts Options,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(opts.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	addressHandler := NewAddressHandler(svc.Addresses, logger)
	r.Route("/api/v1/me/addresses", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))
		r.Use(middleware.RequestLogger(logger))

		r.Get("/", addressHandler.ListAddresses)
		r.Post("/", addressHandler.CreateAddress)
		r.Get("/{id}", addressHandler.GetAddress)
		r.Put("/{id}", addressHandler.UpdateAddress)
		r.Delete("/{id}", addressHandler.DeleteAddress)
		r.Post("/{id}/primary", addressHandler.SetPrimary)
	})

	catalogHandler := NewCatalogHandler(svc.Pricing, logger)
	r.Route("/api/v1/catalog/products", func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.CatalogRPS, opts.CatalogBurst, logger))
		r.Get("/", catalogHandler.ListProducts)
		r.Get("/{id}", catalogHandler.GetProduct)
	})

	products := NewProductAdminHandler(svc.Products, svc.Pricing, logger)
	taxonomy := NewTaxonomyHandler(svc.Taxonomy, logger)
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))
		r.Use(middleware.RequireRole(RoleAdmin))
		r.Use(middleware.RequestLogger(logger))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.ListProducts)
			r.Post("/", products.CreateProduct)
			r.Get("/{id}", products.GetProduct)
			r.Put("/{id}", products.UpdateProduct)
			r.Delete("/{id}", products.DeleteProduct)

			r.Get("/{id}/variants", products.ListVariants)
			r.Post("/{id}/variants", products.CreateVariant)
			r.Post("/{id}/variants/default", products.CreateDefaultVariant)
			r.Put("/{id}/variants/status", products.BulkUpdateVariantStatus)

			r.Get("/{id}/attributes", taxonomy.ListProductAttributes)
			r.Post("/{id}/attributes", taxonomy.AttachProductAttribute)
			r.Delete("/{id}/attributes/{linkID}", taxonomy.DetachProductAttribute)
		})

		r.Route("/variants/{id}", func(r chi.Router) {
			r.Get("/", products.GetVariant)
			r.Put("/", products.UpdateVariant)
			r.Delete("/", products.DeleteVariant)
			r.Post("/stock", products.ChangeStock)

			r.Get("/attributes", taxonomy.ListVariantAttributes)
			r.Post("/attributes", taxonomy.AttachVariantAttribute)
			r.Delete("/attributes/{linkID}", taxonomy.DetachVariantAttribute)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", taxonomy.ListCategories)
			r.Post("/", taxonomy.CreateCategory)
			r.Get("/{id}", taxonomy.GetCategory)
			r.Put("/{id}", taxonomy.UpdateCategory)
			r.Delete("/{id}", taxonomy.DeleteCategory)
		})

		r.Route("/attributes", func(r chi.Router) {
			r.Get("/", taxonomy.ListAttributes)
			r.Post("/", taxonomy.CreateAttribute)
			r.Get("/{id}", taxonomy.GetAttribute)
			r.Put("/{id}", taxonomy.UpdateAttribute)
			r.Delete("/{id}", taxonomy.DeleteAttribute)

			r.Get("/{id}/values", taxonomy.ListAttributeValues)
			r.Post("/{id}/values", taxonomy.CreateAttributeValue)
		})

		r.Put("/attribute-values/{id}", taxonomy.UpdateAttributeValue)
		r.Delete("/attribute-values/{id}", taxonomy.DeleteAttributeValue)
	})

	return r
}
