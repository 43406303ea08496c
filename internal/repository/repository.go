package repository

import (
	"context"

	"github.com/anchorhub/backoffice/internal/domain"
)

// AddressRepository persists user addresses.
type AddressRepository interface {
	// ListByUser returns the user's addresses, primary first.
	ListByUser(ctx context.Context, userID string) ([]domain.Address, error)

	// GetByID returns ErrNotFound when the address does not exist or belongs
	// to a different user.
	GetByID(ctx context.Context, userID, id string) (*domain.Address, error)

	// WithinUserLock runs fn in one transaction holding the user's address
	// lock. The transaction commits only if fn returns nil.
	WithinUserLock(ctx context.Context, userID string, fn func(tx AddressTx) error) error
}

// AddressTx is the write side of AddressRepository, bound to one transaction.
type AddressTx interface {
	// List returns the user's addresses ordered by (created_at, id).
	List(ctx context.Context, userID string) ([]domain.Address, error)
	Insert(ctx context.Context, a *domain.Address) error
	Update(ctx context.Context, a *domain.Address) error
	Delete(ctx context.Context, userID, id string) error

	// ClearPrimary demotes every address of the user.
	ClearPrimary(ctx context.Context, userID string) error

	// MarkPrimary promotes one address. ErrNotFound if it is not the user's.
	MarkPrimary(ctx context.Context, userID, id string) error

	// CountPrimaries returns the number of primary addresses and of all addresses.
	CountPrimaries(ctx context.Context, userID string) (primaries, total int, err error)
}

// ProductRepository persists products.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)
	Update(ctx context.Context, p *domain.Product) error

	// Delete removes the product with its variants and attribute links.
	Delete(ctx context.Context, id string) error
}

// VariantRepository persists variants. Writes go through WithinTx so stock
// status reconciliation and default-flag maintenance commit atomically.
type VariantRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Variant, error)
	ListByProduct(ctx context.Context, productID string, filter domain.VariantFilter) ([]domain.Variant, error)
	ListByProducts(ctx context.Context, productIDs []string) (map[string][]domain.Variant, error)
	WithinTx(ctx context.Context, fn func(tx VariantTx) error) error
}

// VariantTx is the write side of VariantRepository, bound to one transaction.
type VariantTx interface {
	// ProductExists share-locks the product row so it cannot be deleted
	// while variants are written for it.
	ProductExists(ctx context.Context, productID string) (bool, error)

	// Lock reads a variant with a row lock held until the transaction ends.
	Lock(ctx context.Context, id string) (*domain.Variant, error)

	// LockByProduct row-locks and returns every variant of a product.
	LockByProduct(ctx context.Context, productID string) ([]domain.Variant, error)

	Insert(ctx context.Context, v *domain.Variant) error
	Update(ctx context.Context, v *domain.Variant) error
	Delete(ctx context.Context, id string) error

	// ClearDefault unsets is_default on every variant of the product except exceptID.
	ClearDefault(ctx context.Context, productID, exceptID string) error
}

// CategoryRepository persists product categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context, status *domain.RecordStatus) ([]domain.Category, error)
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id string) error
}

// AttributeRepository persists attributes, their values and the links from
// products and variants to them.
type AttributeRepository interface {
	CreateAttribute(ctx context.Context, a *domain.Attribute) error
	GetAttribute(ctx context.Context, id string) (*domain.Attribute, error)
	ListAttributes(ctx context.Context) ([]domain.Attribute, error)
	UpdateAttribute(ctx context.Context, a *domain.Attribute) error
	DeleteAttribute(ctx context.Context, id string) error

	CreateValue(ctx context.Context, v *domain.AttributeValue) error
	GetValue(ctx context.Context, id string) (*domain.AttributeValue, error)
	ListValues(ctx context.Context, attributeID string) ([]domain.AttributeValue, error)
	UpdateValue(ctx context.Context, v *domain.AttributeValue) error
	DeleteValue(ctx context.Context, id string) error

	AttachToProduct(ctx context.Context, pa *domain.ProductAttribute) error
	DetachFromProduct(ctx context.Context, productID, linkID string) error
	ListProductAttributes(ctx context.Context, productID string) ([]domain.ProductAttribute, error)

	AttachToVariant(ctx context.Context, va *domain.VariantAttribute) error
	DetachFromVariant(ctx context.Context, variantID, linkID string) error
	ListVariantAttributes(ctx context.Context, variantID string) ([]domain.VariantAttribute, error)
}

// SummaryCache caches ProductSummary values. Every product carries a version
// that Invalidate advances; Set only fills the entry when the version it was
// given is still current.
type SummaryCache interface {
	// Get returns a nil summary on a miss. The version is valid either way.
	Get(ctx context.Context, productID string) (*domain.ProductSummary, int64, error)
	Set(ctx context.Context, s *domain.ProductSummary, version int64) (bool, error)
	Invalidate(ctx context.Context, productIDs ...string) error
}
