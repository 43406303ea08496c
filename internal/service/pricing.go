package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anchorhub/backoffice/internal/domain"
	"github.com/anchorhub/backoffice/internal/repository"
	apperrors "github.com/anchorhub/backoffice/pkg/errors"
)

// CatalogPricing keeps variant stock and status consistent and derives the
// public price and stock of a product from its variants.
type CatalogPricing struct {
	products repository.ProductRepository
	variants repository.VariantRepository
	cache    repository.SummaryCache
	events   EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

func NewCatalogPricing(
	products repository.ProductRepository,
	variants repository.VariantRepository,
	cache repository.SummaryCache,
	events EventPublisher,
	logger *slog.Logger,
) *CatalogPricing {
	return &CatalogPricing{
		products: products,
		variants: variants,
		cache:    cache,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// UpdateStock sets the stock of a variant and reconciles its status.
func (s *CatalogPricing) UpdateStock(ctx context.Context, variantID string, quantity int) (*domain.Variant, error) {
	if quantity < 0 {
		return nil, apperrors.InvalidInput("quantity must not be negative")
	}
	return s.changeStock(ctx, "set", variantID, func(int) int { return quantity })
}

// ReduceStock lowers the stock by amount, stopping at zero.
func (s *CatalogPricing) ReduceStock(ctx context.Context, variantID string, amount int) (*domain.Variant, error) {
	if amount < 1 {
		return nil, apperrors.InvalidInput("amount must be at least 1")
	}
	return s.changeStock(ctx, "reduce", variantID, func(q int) int { return max(0, q-amount) })
}

// IncreaseStock raises the stock by amount.
func (s *CatalogPricing) IncreaseStock(ctx context.Context, variantID string, amount int) (*domain.Variant, error) {
	if amount < 1 {
		return nil, apperrors.InvalidInput("amount must be at least 1")
	}
	return s.changeStock(ctx, "increase", variantID, func(q int) int { return q + amount })
}

// changeStock reads the current quantity and writes the new one under the
// variant's row lock.
func (s *CatalogPricing) changeStock(ctx context.Context, op, variantID string, next func(current int) int) (*domain.Variant, error) {
	var before, after domain.Variant
	err := s.variants.WithinTx(ctx, func(tx repository.VariantTx) error {
		v, err := tx.Lock(ctx, variantID)
		if err != nil {
			return err
		}
		before = *v

		v.StockQuantity = next(v.StockQuantity)
		v.ReconcileStockStatus()
		v.UpdatedAt = s.now()
		if err := tx.Update(ctx, v); err != nil {
			return err
		}
		after = *v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s stock: %w", op, err)
	}

	stockWrites.WithLabelValues(op).Inc()
	s.variantsWritten(ctx, [2]domain.Variant{before, after})

	s.logger.InfoContext(ctx, "variant stock updated",
		slog.String("variant_id", variantID),
		slog.String("op", op),
		slog.Int("previous", before.StockQuantity),
		slog.Int("quantity", after.StockQuantity),
		slog.String("status", string(after.Status)),
	)
	return &after, nil
}

// variantsWritten runs after a committed variant write: it drops the cached
// summaries of the affected products and publishes stock events. Each change
// is a (before, after) pair; a zero before means the variant was created.
func (s *CatalogPricing) variantsWritten(ctx context.Context, changes ...[2]domain.Variant) {
	seen := make(map[string]struct{}, len(changes))
	ids := make([]string, 0, len(changes))
	for _, c := range changes {
		pid := c[1].ProductID
		if pid == "" {
			pid = c[0].ProductID
		}
		if _, ok := seen[pid]; !ok {
			seen[pid] = struct{}{}
			ids = append(ids, pid)
		}
	}
	s.invalidate(ctx, ids...)

	for _, c := range changes {
		before, after := c[0], c[1]
		if after.ID == "" {
			continue
		}
		if before.ID == "" || before.StockQuantity != after.StockQuantity || before.Status != after.Status {
			if err := s.events.PublishStockUpdated(ctx, &after, before.StockQuantity); err != nil {
				s.logPublishError(ctx, "stock_updated", &after, err)
			}
		}
		if after.Status == domain.VariantStatusOutOfStock && before.Status != domain.VariantStatusOutOfStock {
			variantsOutOfStock.Inc()
			if err := s.events.PublishOutOfStock(ctx, &after); err != nil {
				s.logPublishError(ctx, "out_of_stock", &after, err)
			}
		}
	}
}

func (s *CatalogPricing) invalidate(ctx context.Context, productIDs ...string) {
	if err := s.cache.Invalidate(ctx, productIDs...); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate product summaries",
			slog.Any("product_ids", productIDs),
			slog.String("error", err.Error()),
		)
	}
}

func (s *CatalogPricing) logPublishError(ctx context.Context, kind string, v *domain.Variant, err error) {
	s.logger.ErrorContext(ctx, "failed to publish "+kind+" event",
		slog.String("variant_id", v.ID),
		slog.String("product_id", v.ProductID),
		slog.String("error", err.Error()),
	)
}

// ProductSummary returns a product with its display price and available
// stock. Cache errors are logged and the summary is computed from Postgres.
// The cache is filled only when no variant write invalidated the product
// while the summary was being computed.
func (s *CatalogPricing) ProductSummary(ctx context.Context, productID string) (*domain.ProductSummary, error) {
	cached, version, err := s.cache.Get(ctx, productID)
	cacheUsable := err == nil
	switch {
	case err != nil:
		summaryCacheLookups.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "summary cache read failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	case cached != nil:
		summaryCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	default:
		summaryCacheLookups.WithLabelValues("miss").Inc()
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product summary: %w", err)
	}
	variants, err := s.variants.ListByProduct(ctx, productID, domain.VariantFilter{})
	if err != nil {
		return nil, fmt.Errorf("product summary variants: %w", err)
	}

	summary := domain.Summarize(*p, variants)
	if !cacheUsable {
		return &summary, nil
	}
	written, err := s.cache.Set(ctx, &summary, version)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "summary cache write failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	case !written:
		summaryCacheLookups.WithLabelValues("stale_fill").Inc()
		s.logger.DebugContext(ctx, "summary invalidated during fill, not cached",
			slog.String("product_id", productID),
		)
	}
	return &summary, nil
}

// ListProductSummaries returns one page of product summaries.
func (s *CatalogPricing) ListProductSummaries(ctx context.Context, filter domain.ProductFilter) ([]domain.ProductSummary, int, error) {
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	byProduct, err := s.variants.ListByProducts(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("list product variants: %w", err)
	}

	summaries := make([]domain.ProductSummary, len(products))
	for i, p := range products {
		summaries[i] = domain.Summarize(p, byProduct[p.ID])
	}
	return summaries, total, nil
}
