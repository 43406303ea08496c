package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/anchorhub/backoffice/pkg/kafka"
	"github.com/anchorhub/backoffice/pkg/logger"
	"github.com/anchorhub/backoffice/pkg/middleware"

	"github.com/anchorhub/backoffice/internal/domain"
)

// Kafka topics for back office domain events.
const (
	TopicPrimaryAddressChanged = "backoffice.address.primary_changed"
	TopicVariantStockUpdated   = "backoffice.variant.stock_updated"
	TopicVariantOutOfStock     = "backoffice.variant.out_of_stock"
)

const (
	AggregateTypeAddress = "address"
	AggregateTypeVariant = "variant"
)

const SourceBackoffice = "backoffice"

// MetadataActor names the authenticated user whose request caused the event.
const MetadataActor = "actor"

// PrimaryChangedData is the payload of address.primary_changed.
type PrimaryChangedData struct {
	UserID            string `json:"user_id"`
	AddressID         string `json:"address_id"`
	PreviousAddressID string `json:"previous_address_id,omitempty"`
}

// StockUpdatedData is the payload of variant.stock_updated.
type StockUpdatedData struct {
	ProductID        string               `json:"product_id"`
	VariantID        string               `json:"variant_id"`
	SKU              string               `json:"sku"`
	PreviousQuantity int                  `json:"previous_quantity"`
	Quantity         int                  `json:"quantity"`
	Status           domain.VariantStatus `json:"status"`
}

// OutOfStockData is the payload of variant.out_of_stock.
type OutOfStockData struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	SKU       string `json:"sku"`
}

// Publisher is satisfied by *pkgkafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes back office domain events.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishPrimaryChanged publishes address.primary_changed. previousID is
// empty when the user had no primary address before.
func (p *Producer) PublishPrimaryChanged(ctx context.Context, addr *domain.Address, previousID string) error {
	data := PrimaryChangedData{
		UserID:            addr.UserID,
		AddressID:         addr.ID,
		PreviousAddressID: previousID,
	}
	return p.publish(ctx, TopicPrimaryAddressChanged, addr.UserID, AggregateTypeAddress, data)
}

// PublishStockUpdated publishes variant.stock_updated.
func (p *Producer) PublishStockUpdated(ctx context.Context, v *domain.Variant, previousQuantity int) error {
	data := StockUpdatedData{
		ProductID:        v.ProductID,
		VariantID:        v.ID,
		SKU:              v.SKU,
		PreviousQuantity: previousQuantity,
		Quantity:         v.StockQuantity,
		Status:           v.Status,
	}
	return p.publish(ctx, TopicVariantStockUpdated, v.ID, AggregateTypeVariant, data)
}

// PublishOutOfStock publishes variant.out_of_stock.
func (p *Producer) PublishOutOfStock(ctx context.Context, v *domain.Variant) error {
	data := OutOfStockData{ProductID: v.ProductID, VariantID: v.ID, SKU: v.SKU}
	return p.publish(ctx, TopicVariantOutOfStock, v.ID, AggregateTypeVariant, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceBackoffice, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}
	if actor := middleware.UserIDFromContext(ctx); actor != "" {
		evt.WithMetadata(MetadataActor, actor)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}
