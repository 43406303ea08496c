package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anchorhub/backoffice/internal/domain"
	"github.com/anchorhub/backoffice/internal/repository"
	apperrors "github.com/anchorhub/backoffice/pkg/errors"
)

// CatalogService administers products, variants, categories and attributes.
// Variant writes go through the same hooks as stock changes in CatalogPricing.
type CatalogService struct {
	products   repository.ProductRepository
	variants   repository.VariantRepository
	categories repository.CategoryRepository
	attributes repository.AttributeRepository
	pricing    *CatalogPricing
	logger     *slog.Logger
	now        func() time.Time
}

func NewCatalogService(
	products repository.ProductRepository,
	variants repository.VariantRepository,
	categories repository.CategoryRepository,
	attributes repository.AttributeRepository,
	pricing *CatalogPricing,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		products:   products,
		variants:   variants,
		categories: categories,
		attributes: attributes,
		pricing:    pricing,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// --- Products ---

type CreateProductInput struct {
	Name        string
	Description string
	CategoryID  *string
	Status      domain.ProductStatus
}

// UpdateProductInput is a partial update. An empty CategoryID detaches the
// product from its category.
type UpdateProductInput struct {
	Name        *string
	Description *string
	CategoryID  *string
	Status      *domain.ProductStatus
}

func (s *CatalogService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	status := input.Status
	if status == "" {
		status = domain.ProductStatusDraft
	}
	if !status.Valid() {
		return nil, apperrors.InvalidInputf("invalid product status %q", status)
	}
	if err := s.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	now := s.now()
	p := &domain.Product{
		ID:          uuid.New().String(),
		CategoryID:  input.CategoryID,
		Name:        name,
		Description: input.Description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", p.ID),
		slog.String("status", string(p.Status)),
	)
	return p, nil
}

// GetProduct returns a product with its variants and attribute links.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	if p.Variants, err = s.variants.ListByProduct(ctx, id, domain.VariantFilter{}); err != nil {
		return nil, fmt.Errorf("get product variants: %w", err)
	}
	if p.Attributes, err = s.attributes.ListProductAttributes(ctx, id); err != nil {
		return nil, fmt.Errorf("get product attributes: %w", err)
	}
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, input *UpdateProductInput) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		p.Name = name
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperrors.InvalidInputf("invalid product status %q", *input.Status)
		}
		p.Status = *input.Status
	}
	if input.CategoryID != nil {
		if *input.CategoryID == "" {
			p.CategoryID = nil
		} else {
			if err := s.checkCategory(ctx, input.CategoryID); err != nil {
				return nil, err
			}
			p.CategoryID = input.CategoryID
		}
	}

	p.UpdatedAt = s.now()
	if err := s.products.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.pricing.invalidate(ctx, id)

	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", id))
	return p, nil
}

// DeleteProduct removes a product together with its variants and attribute links.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.pricing.invalidate(ctx, id)

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id *string) error {
	if id == nil {
		return nil
	}
	if _, err := s.categories.GetByID(ctx, *id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidInputf("category %s does not exist", *id)
		}
		return fmt.Errorf("check category: %w", err)
	}
	return nil
}

// --- Variants ---

type CreateVariantInput struct {
	SKU           string
	Price         decimal.Decimal
	StockQuantity int
	ImageURL      *string
	IsDefault     bool
	Status        domain.VariantStatus
}

type UpdateVariantInput struct {
	SKU           *string
	Price         *decimal.Decimal
	StockQuantity *int
	ImageURL      *string
	IsDefault     *bool
	Status        *domain.VariantStatus
}

// CreateDefaultVariantInput holds the parameters of CreateDefaultVariant.
// An empty SKU is derived from the product id.
type CreateDefaultVariantInput struct {
	Price         decimal.Decimal
	StockQuantity int
	SKU           string
}

func validateSKU(sku string) (string, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return "", apperrors.InvalidInput("sku is required")
	}
	if len(sku) > domain.MaxSKULength {
		return "", apperrors.InvalidInputf("sku must be at most %d characters", domain.MaxSKULength)
	}
	return sku, nil
}

func validatePriceAndStock(price decimal.Decimal, stock int) error {
	if price.IsNegative() {
		return apperrors.InvalidInput("price must not be negative")
	}
	if stock < 0 {
		return apperrors.InvalidInput("stock_quantity must not be negative")
	}
	return nil
}

// defaultSKU is PROD- followed by the first segment of the product id.
func defaultSKU(productID string) string {
	prefix, _, _ := strings.Cut(productID, "-")
	return "PROD-" + strings.ToUpper(prefix)
}

func (s *CatalogService) GetVariant(ctx context.Context, id string) (*domain.Variant, error) {
	v, err := s.variants.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get variant: %w", err)
	}
	if v.Attributes, err = s.attributes.ListVariantAttributes(ctx, id); err != nil {
		return nil, fmt.Errorf("get variant attributes: %w", err)
	}
	return v, nil
}

// ListVariants returns the variants of a product matching filter.
func (s *CatalogService) ListVariants(ctx context.Context, productID string, filter domain.VariantFilter) ([]domain.Variant, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	variants, err := s.variants.ListByProduct(ctx, productID, filter)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	if variants == nil {
		variants = []domain.Variant{}
	}
	return variants, nil
}

func (s *CatalogService) CreateVariant(ctx context.Context, productID string, input *CreateVariantInput) (*domain.Variant, error) {
	sku, err := validateSKU(input.SKU)
	if err != nil {
		return nil, err
	}
	if err := validatePriceAndStock(input.Price, input.StockQuantity); err != nil {
		return nil, err
	}
	status := input.Status
	if status == "" {
		status = domain.VariantStatusActive
	}
	if !status.Valid() {
		return nil, apperrors.InvalidInputf("invalid variant status %q", status)
	}

	now := s.now()
	v := &domain.Variant{
		ID:            uuid.New().String(),
		ProductID:     productID,
		SKU:           sku,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		ImageURL:      input.ImageURL,
		IsDefault:     input.IsDefault,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.variants.WithinTx(ctx, func(tx repository.VariantTx) error {
		return s.insertVariant(ctx, tx, v)
	})
	if err != nil {
		return nil, fmt.Errorf("create variant: %w", err)
	}

	s.pricing.variantsWritten(ctx, [2]domain.Variant{{}, *v})
	s.logger.InfoContext(ctx, "variant created",
		slog.String("product_id", productID),
		slog.String("variant_id", v.ID),
		slog.String("sku", v.SKU),
	)
	return v, nil
}

func (s *CatalogService) insertVariant(ctx context.Context, tx repository.VariantTx, v *domain.Variant) error {
	ok, err := tx.ProductExists(ctx, v.ProductID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("product", v.ProductID)
	}
	if v.IsDefault {
		if err := tx.ClearDefault(ctx, v.ProductID, v.ID); err != nil {
			return err
		}
	}
	v.ReconcileStockStatus()
	return tx.Insert(ctx, v)
}

// CreateDefaultVariant returns the product's default variant, creating it
// when the product has none. The second result reports whether it was created.
func (s *CatalogService) CreateDefaultVariant(ctx context.Context, productID string, input *CreateDefaultVariantInput) (*domain.Variant, bool, error) {
	if err := validatePriceAndStock(input.Price, input.StockQuantity); err != nil {
		return nil, false, err
	}
	sku := input.SKU
	if strings.TrimSpace(sku) == "" {
		sku = defaultSKU(productID)
	}
	sku, err := validateSKU(sku)
	if err != nil {
		return nil, false, err
	}

	var (
		result  *domain.Variant
		created bool
	)
	err = s.variants.WithinTx(ctx, func(tx repository.VariantTx) error {
		existing, err := tx.LockByProduct(ctx, productID)
		if err != nil {
			return err
		}
		for i := range existing {
			if existing[i].IsDefault {
				result = &existing[i]
				return nil
			}
		}

		now := s.now()
		v := &domain.Variant{
			ID:            uuid.New().String(),
			ProductID:     productID,
			SKU:           sku,
			Price:         input.Price,
			StockQuantity: input.StockQuantity,
			IsDefault:     true,
			Status:        domain.VariantStatusActive,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.insertVariant(ctx, tx, v); err != nil {
			return err
		}
		result, created = v, true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("create default variant: %w", err)
	}

	if created {
		s.pricing.variantsWritten(ctx, [2]domain.Variant{{}, *result})
		s.logger.InfoContext(ctx, "default variant created",
			slog.String("product_id", productID),
			slog.String("variant_id", result.ID),
		)
	}
	return result, created, nil
}

func (s *CatalogService) UpdateVariant(ctx context.Context, id string, input *UpdateVariantInput) (*domain.Variant, error) {
	var before, after domain.Variant
	err := s.variants.WithinTx(ctx, func(tx repository.VariantTx) error {
		v, err := tx.Lock(ctx, id)
		if err != nil {
			return err
		}
		before = *v

		if err := applyVariantUpdate(v, input); err != nil {
			return err
		}
		if input.IsDefault != nil && *input.IsDefault && !before.IsDefault {
			if err := tx.ClearDefault(ctx, v.ProductID, v.ID); err != nil {
				return err
			}
		}

		v.ReconcileStockStatus()
		v.UpdatedAt = s.now()
		if err := tx.Update(ctx, v); err != nil {
			return err
		}
		after = *v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update variant: %w", err)
	}

	s.pricing.variantsWritten(ctx, [2]domain.Variant{before, after})
	s.logger.InfoContext(ctx, "variant updated",
		slog.String("product_id", after.ProductID),
		slog.String("variant_id", id),
	)
	return &after, nil
}

func applyVariantUpdate(v *domain.Variant, in *UpdateVariantInput) error {
	if in.SKU != nil {
		sku, err := validateSKU(*in.SKU)
		if err != nil {
			return err
		}
		v.SKU = sku
	}
	if in.Price != nil {
		v.Price = *in.Price
	}
	if in.StockQuantity != nil {
		v.StockQuantity = *in.StockQuantity
	}
	if err := validatePriceAndStock(v.Price, v.StockQuantity); err != nil {
		return err
	}
	if in.ImageURL != nil {
		if *in.ImageURL == "" {
			v.ImageURL = nil
		} else {
			v.ImageURL = in.ImageURL
		}
	}
	if in.IsDefault != nil {
		v.IsDefault = *in.IsDefault
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return apperrors.InvalidInputf("invalid variant status %q", *in.Status)
		}
		v.Status = *in.Status
	}
	return nil
}

func (s *CatalogService) DeleteVariant(ctx context.Context, id string) error {
	var productID string
	err := s.variants.WithinTx(ctx, func(tx repository.VariantTx) error {
		v, err := tx.Lock(ctx, id)
		if err != nil {
			return err
		}
		productID = v.ProductID
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete variant: %w", err)
	}

	s.pricing.invalidate(ctx, productID)
	s.logger.InfoContext(ctx, "variant deleted",
		slog.String("product_id", productID),
		slog.String("variant_id", id),
	)
	return nil
}

// BulkUpdateVariantStatus sets status on several variants of one product in a
// single transaction. Each variant is reconciled with its stock, so an empty
// variant stays out_of_stock even when activated.
func (s *CatalogService) BulkUpdateVariantStatus(ctx context.Context, productID string, variantIDs []string, status domain.VariantStatus) ([]domain.Variant, error) {
	if len(variantIDs) == 0 {
		return nil, apperrors.InvalidInput("variant_ids must not be empty")
	}
	if !status.Valid() {
		return nil, apperrors.InvalidInputf("invalid variant status %q", status)
	}

	changes := make([][2]domain.Variant, 0, len(variantIDs))
	err := s.variants.WithinTx(ctx, func(tx repository.VariantTx) error {
		for _, id := range variantIDs {
			v, err := tx.Lock(ctx, id)
			if err != nil {
				return err
			}
			if v.ProductID != productID {
				return apperrors.NotFound("variant", id)
			}
			before := *v

			v.Status = status
			v.ReconcileStockStatus()
			v.UpdatedAt = s.now()
			if err := tx.Update(ctx, v); err != nil {
				return err
			}
			changes = append(changes, [2]domain.Variant{before, *v})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bulk update variant status: %w", err)
	}

	s.pricing.variantsWritten(ctx, changes...)

	updated := make([]domain.Variant, len(changes))
	for i, c := range changes {
		updated[i] = c[1]
	}
	s.logger.InfoContext(ctx, "variant statuses updated",
		slog.String("product_id", productID),
		slog.Int("count", len(updated)),
		slog.String("status", string(status)),
	)
	return updated, nil
}
