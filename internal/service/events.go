package service

import (
	"context"

	"github.com/anchorhub/backoffice/internal/domain"
)

// EventPublisher is implemented by *event.Producer. Publishing happens after
// commit and is best effort: failures are logged, never returned.
type EventPublisher interface {
	PublishPrimaryChanged(ctx context.Context, addr *domain.Address, previousID string) error
	PublishStockUpdated(ctx context.Context, v *domain.Variant, previousQuantity int) error
	PublishOutOfStock(ctx context.Context, v *domain.Variant) error
}
