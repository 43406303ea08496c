package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/anchorhub/backoffice/internal/domain"
	"github.com/anchorhub/backoffice/internal/repository"
	apperrors "github.com/anchorhub/backoffice/pkg/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

// tick returns a clock that advances one second per call so creation order is stable.
func tick() func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

// ---------------------------------------------------------------------------
// events
// ---------------------------------------------------------------------------

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishPrimaryChanged(ctx context.Context, addr *domain.Address, previousID string) error {
	return m.Called(ctx, addr, previousID).Error(0)
}

func (m *mockEvents) PublishStockUpdated(ctx context.Context, v *domain.Variant, previousQuantity int) error {
	return m.Called(ctx, v, previousQuantity).Error(0)
}

func (m *mockEvents) PublishOutOfStock(ctx context.Context, v *domain.Variant) error {
	return m.Called(ctx, v).Error(0)
}

func newMockEvents() *mockEvents {
	m := new(mockEvents)
	m.On("PublishPrimaryChanged", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PublishStockUpdated", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PublishOutOfStock", mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

// ---------------------------------------------------------------------------
// addresses
// ---------------------------------------------------------------------------

// fakeAddressRepo keeps addresses in memory. WithinUserLock snapshots the
// store and restores it when fn fails, and the one-primary-per-user index is
// enforced on every write like the partial unique index does.
type fakeAddressRepo struct {
	mu    sync.Mutex
	addrs map[string]domain.Address

	// breakCount makes CountPrimaries report a wrong number once.
	breakCount bool
}

func newFakeAddressRepo(seed ...domain.Address) *fakeAddressRepo {
	r := &fakeAddressRepo{addrs: make(map[string]domain.Address)}
	for _, a := range seed {
		r.addrs[a.ID] = a
	}
	return r
}

var _ repository.AddressRepository = (*fakeAddressRepo)(nil)

func (r *fakeAddressRepo) ListByUser(_ context.Context, userID string) ([]domain.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.listLocked(userID)
	sort.SliceStable(out, func(i, j int) bool { return out[i].IsPrimary && !out[j].IsPrimary })
	return out, nil
}

func (r *fakeAddressRepo) GetByID(_ context.Context, userID, id string) (*domain.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.addrs[id]
	if !ok || a.UserID != userID {
		return nil, apperrors.NotFound("address", id)
	}
	return &a, nil
}

func (r *fakeAddressRepo) WithinUserLock(ctx context.Context, _ string, fn func(tx repository.AddressTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[string]domain.Address, len(r.addrs))
	for k, v := range r.addrs {
		snapshot[k] = v
	}
	if err := fn(fakeAddressTx{r}); err != nil {
		r.addrs = snapshot
		return err
	}
	return nil
}

func (r *fakeAddressRepo) listLocked(userID string) []domain.Address {
	var out []domain.Address
	for _, a := range r.addrs {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *fakeAddressRepo) checkPrimaryIndex(a domain.Address) error {
	if !a.IsPrimary {
		return nil
	}
	for _, other := range r.addrs {
		if other.UserID == a.UserID && other.ID != a.ID && other.IsPrimary {
			return apperrors.InvariantViolation("user would have more than one primary address")
		}
	}
	return nil
}

type fakeAddressTx struct {
	r *fakeAddressRepo
}

func (t fakeAddressTx) List(_ context.Context, userID string) ([]domain.Address, error) {
	return t.r.listLocked(userID), nil
}

func (t fakeAddressTx) Insert(_ context.Context, a *domain.Address) error {
	if err := t.r.checkPrimaryIndex(*a); err != nil {
		return err
	}
	t.r.addrs[a.ID] = *a
	return nil
}

func (t fakeAddressTx) Update(_ context.Context, a *domain.Address) error {
	cur, ok := t.r.addrs[a.ID]
	if !ok || cur.UserID != a.UserID {
		return apperrors.NotFound("address", a.ID)
	}
	if err := t.r.checkPrimaryIndex(*a); err != nil {
		return err
	}
	t.r.addrs[a.ID] = *a
	return nil
}

func (t fakeAddressTx) Delete(_ context.Context, userID, id string) error {
	cur, ok := t.r.addrs[id]
	if !ok || cur.UserID != userID {
		return apperrors.NotFound("address", id)
	}
	delete(t.r.addrs, id)
	return nil
}

func (t fakeAddressTx) ClearPrimary(_ context.Context, userID string) error {
	for id, a := range t.r.addrs {
		if a.UserID == userID && a.IsPrimary {
			a.IsPrimary = false
			t.r.addrs[id] = a
		}
	}
	return nil
}

func (t fakeAddressTx) MarkPrimary(_ context.Context, userID, id string) error {
	a, ok := t.r.addrs[id]
	if !ok || a.UserID != userID {
		return apperrors.NotFound("address", id)
	}
	a.IsPrimary = true
	if err := t.r.checkPrimaryIndex(a); err != nil {
		return err
	}
	t.r.addrs[id] = a
	return nil
}

func (t fakeAddressTx) CountPrimaries(_ context.Context, userID string) (int, int, error) {
	addrs := t.r.listLocked(userID)
	primaries := domain.CountPrimaries(addrs)
	if t.r.breakCount {
		t.r.breakCount = false
		primaries++
	}
	return primaries, len(addrs), nil
}

// ---------------------------------------------------------------------------
// catalog
// ---------------------------------------------------------------------------

type fakeCatalog struct {
	mu         sync.Mutex
	products   map[string]domain.Product
	variants   map[string]domain.Variant
	categories map[string]domain.Category
	attrs      map[string]domain.Attribute
	values     map[string]domain.AttributeValue
	prodLinks  map[string]domain.ProductAttribute
	varLinks   map[string]domain.VariantAttribute
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products:   make(map[string]domain.Product),
		variants:   make(map[string]domain.Variant),
		categories: make(map[string]domain.Category),
		attrs:      make(map[string]domain.Attribute),
		values:     make(map[string]domain.AttributeValue),
		prodLinks:  make(map[string]domain.ProductAttribute),
		varLinks:   make(map[string]domain.VariantAttribute),
	}
}

func (c *fakeCatalog) sortedVariants(productID string) []domain.Variant {
	var out []domain.Variant
	for _, v := range c.variants {
		if v.ProductID == productID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// fakeProducts implements repository.ProductRepository.
type fakeProducts struct{ c *fakeCatalog }

func (f fakeProducts) Create(_ context.Context, p *domain.Product) error {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	f.c.products[p.ID] = *p
	return nil
}

func (f fakeProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	p, ok := f.c.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return &p, nil
}

func (f fakeProducts) List(_ context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	var out []domain.Product
	for _, p := range f.c.products {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f fakeProducts) Update(_ context.Context, p *domain.Product) error {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	if _, ok := f.c.products[p.ID]; !ok {
		return apperrors.NotFound("product", p.ID)
	}
	f.c.products[p.ID] = *p
	return nil
}

func (f fakeProducts) Delete(_ context.Context, id string) error {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	if _, ok := f.c.products[id]; !ok {
		return apperrors.NotFound("product", id)
	}
	delete(f.c.products, id)
	for vid, v := range f.c.variants {
		if v.ProductID == id {
			delete(f.c.variants, vid)
		}
	}
	return nil
}

// fakeVariants implements repository.VariantRepository with snapshot rollback.
type fakeVariants struct{ c *fakeCatalog }

func (f fakeVariants) GetByID(_ context.Context, id string) (*domain.Variant, error) {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	v, ok := f.c.variants[id]
	if !ok {
		return nil, apperrors.NotFound("variant", id)
	}
	return &v, nil
}

func (f fakeVariants) ListByProduct(_ context.Context, productID string, filter domain.VariantFilter) ([]domain.Variant, error) {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	var out []domain.Variant
	for _, v := range f.c.sortedVariants(productID) {
		if filter.Match(&v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f fakeVariants) ListByProducts(_ context.Context, ids []string) (map[string][]domain.Variant, error) {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	out := make(map[string][]domain.Variant, len(ids))
	for _, id := range ids {
		if vs := f.c.sortedVariants(id); len(vs) > 0 {
			out[id] = vs
		}
	}
	return out, nil
}

func (f fakeVariants) WithinTx(_ context.Context, fn func(tx repository.VariantTx) error) error {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()

	snapshot := make(map[string]domain.Variant, len(f.c.variants))
	for k, v := range f.c.variants {
		snapshot[k] = v
	}
	if err := fn(fakeVariantTx{f.c}); err != nil {
		f.c.variants = snapshot
		return err
	}
	return nil
}

type fakeVariantTx struct{ c *fakeCatalog }

func (t fakeVariantTx) ProductExists(_ context.Context, productID string) (bool, error) {
	_, ok := t.c.products[productID]
	return ok, nil
}

func (t fakeVariantTx) Lock(_ context.Context, id string) (*domain.Variant, error) {
	v, ok := t.c.variants[id]
	if !ok {
		return nil, apperrors.NotFound("variant", id)
	}
	return &v, nil
}

func (t fakeVariantTx) LockByProduct(_ context.Context, productID string) ([]domain.Variant, error) {
	return t.c.sortedVariants(productID), nil
}

func (t fakeVariantTx) check(v *domain.Variant) error {
	for _, other := range t.c.variants {
		if other.ID == v.ID {
			continue
		}
		if other.SKU == v.SKU {
			return apperrors.InvalidInputf("sku %q is already in use", v.SKU)
		}
		if v.IsDefault && other.IsDefault && other.ProductID == v.ProductID {
			return apperrors.InvariantViolation("product would have more than one default variant")
		}
	}
	if v.StockQuantity <= 0 && v.Status != domain.VariantStatusOutOfStock {
		return fmt.Errorf("variants_empty_is_out_of_stock: stock %d with status %s", v.StockQuantity, v.Status)
	}
	return nil
}

func (t fakeVariantTx) Insert(_ context.Context, v *domain.Variant) error {
	if err := t.check(v); err != nil {
		return err
	}
	t.c.variants[v.ID] = *v
	return nil
}

func (t fakeVariantTx) Update(_ context.Context, v *domain.Variant) error {
	if _, ok := t.c.variants[v.ID]; !ok {
		return apperrors.NotFound("variant", v.ID)
	}
	if err := t.check(v); err != nil {
		return err
	}
	t.c.variants[v.ID] = *v
	return nil
}

func (t fakeVariantTx) Delete(_ context.Context, id string) error {
	if _, ok := t.c.variants[id]; !ok {
		return apperrors.NotFound("variant", id)
	}
	delete(t.c.variants, id)
	return nil
}

func (t fakeVariantTx) ClearDefault(_ context.Context, productID, exceptID string) error {
	for id, v := range t.c.variants {
		if v.ProductID == productID && id != exceptID && v.IsDefault {
			v.IsDefault = false
			t.c.variants[id] = v
		}
	}
	return nil
}

// fakeCategories implements repository.CategoryRepository.
type fakeCategories struct{ c *fakeCatalog }

func (f fakeCategories) Create(_ context.Context, cat *domain.Category) error {
	f.c.categories[cat.ID] = *cat
	return nil
}

func (f fakeCategories) GetByID(_ context.Context, id string) (*domain.Category, error) {
	cat, ok := f.c.categories[id]
	if !ok {
		return nil, apperrors.NotFound("category", id)
	}
	return &cat, nil
}

func (f fakeCategories) List(_ context.Context, status *domain.RecordStatus) ([]domain.Category, error) {
	out := []domain.Category{}
	for _, cat := range f.c.categories {
		if status == nil || cat.Status == *status {
			out = append(out, cat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f fakeCategories) Update(_ context.Context, cat *domain.Category) error {
	if _, ok := f.c.categories[cat.ID]; !ok {
		return apperrors.NotFound("category", cat.ID)
	}
	f.c.categories[cat.ID] = *cat
	return nil
}

func (f fakeCategories) Delete(_ context.Context, id string) error {
	if _, ok := f.c.categories[id]; !ok {
		return apperrors.NotFound("category", id)
	}
	delete(f.c.categories, id)
	return nil
}

// fakeAttributes implements repository.AttributeRepository.
type fakeAttributes struct{ c *fakeCatalog }

func (f fakeAttributes) CreateAttribute(_ context.Context, a *domain.Attribute) error {
	f.c.attrs[a.ID] = *a
	return nil
}

func (f fakeAttributes) GetAttribute(_ context.Context, id string) (*domain.Attribute, error) {
	a, ok := f.c.attrs[id]
	if !ok {
		return nil, apperrors.NotFound("attribute", id)
	}
	return &a, nil
}

func (f fakeAttributes) ListAttributes(_ context.Context) ([]domain.Attribute, error) {
	out := []domain.Attribute{}
	for _, a := range f.c.attrs {
		usage := domain.AttributeUsage{}
		for _, v := range f.c.values {
			if v.AttributeID == a.ID {
				usage.Values++
			}
		}
		for _, l := range f.c.prodLinks {
			if l.AttributeID == a.ID {
				usage.Products++
			}
		}
		for _, l := range f.c.varLinks {
			if l.AttributeID == a.ID {
				usage.Variants++
			}
		}
		a.Usage = &usage
		out = append(out, a)
	}
	return out, nil
}

func (f fakeAttributes) UpdateAttribute(_ context.Context, a *domain.Attribute) error {
	f.c.attrs[a.ID] = *a
	return nil
}

func (f fakeAttributes) DeleteAttribute(_ context.Context, id string) error {
	if _, ok := f.c.attrs[id]; !ok {
		return apperrors.NotFound("attribute", id)
	}
	delete(f.c.attrs, id)
	return nil
}

func (f fakeAttributes) CreateValue(_ context.Context, v *domain.AttributeValue) error {
	f.c.values[v.ID] = *v
	return nil
}

func (f fakeAttributes) GetValue(_ context.Context, id string) (*domain.AttributeValue, error) {
	v, ok := f.c.values[id]
	if !ok {
		return nil, apperrors.NotFound("attribute value", id)
	}
	return &v, nil
}

func (f fakeAttributes) ListValues(_ context.Context, attributeID string) ([]domain.AttributeValue, error) {
	out := []domain.AttributeValue{}
	for _, v := range f.c.values {
		if v.AttributeID == attributeID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f fakeAttributes) UpdateValue(_ context.Context, v *domain.AttributeValue) error {
	f.c.values[v.ID] = *v
	return nil
}

func (f fakeAttributes) DeleteValue(_ context.Context, id string) error {
	if _, ok := f.c.values[id]; !ok {
		return apperrors.NotFound("attribute value", id)
	}
	delete(f.c.values, id)
	return nil
}

func (f fakeAttributes) AttachToProduct(_ context.Context, pa *domain.ProductAttribute) error {
	f.c.prodLinks[pa.ID] = *pa
	return nil
}

func (f fakeAttributes) DetachFromProduct(_ context.Context, productID, linkID string) error {
	l, ok := f.c.prodLinks[linkID]
	if !ok || l.ProductID != productID {
		return apperrors.NotFound("product attribute", linkID)
	}
	delete(f.c.prodLinks, linkID)
	return nil
}

func (f fakeAttributes) ListProductAttributes(_ context.Context, productID string) ([]domain.ProductAttribute, error) {
	out := []domain.ProductAttribute{}
	for _, l := range f.c.prodLinks {
		if l.ProductID == productID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f fakeAttributes) AttachToVariant(_ context.Context, va *domain.VariantAttribute) error {
	f.c.varLinks[va.ID] = *va
	return nil
}

func (f fakeAttributes) DetachFromVariant(_ context.Context, variantID, linkID string) error {
	l, ok := f.c.varLinks[linkID]
	if !ok || l.VariantID != variantID {
		return apperrors.NotFound("variant attribute", linkID)
	}
	delete(f.c.varLinks, linkID)
	return nil
}

func (f fakeAttributes) ListVariantAttributes(_ context.Context, variantID string) ([]domain.VariantAttribute, error) {
	out := []domain.VariantAttribute{}
	for _, l := range f.c.varLinks {
		if l.VariantID == variantID {
			out = append(out, l)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// summary cache
// ---------------------------------------------------------------------------

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, productID string) (*domain.ProductSummary, int64, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).(*domain.ProductSummary), args.Get(1).(int64), args.Error(2)
}

func (m *mockCache) Set(ctx context.Context, s *domain.ProductSummary, version int64) (bool, error) {
	args := m.Called(ctx, s, version)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Invalidate(ctx context.Context, productIDs ...string) error {
	return m.Called(ctx, productIDs).Error(0)
}

// newMissingCache is a cache that never hits and accepts every write.
func newMissingCache() *mockCache {
	m := new(mockCache)
	m.On("Get", mock.Anything, mock.Anything).Return(nil, int64(0), nil).Maybe()
	m.On("Set", mock.Anything, mock.Anything, int64(0)).Return(true, nil).Maybe()
	m.On("Invalidate", mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

var (
	_ repository.ProductRepository   = fakeProducts{}
	_ repository.VariantRepository   = fakeVariants{}
	_ repository.CategoryRepository  = fakeCategories{}
	_ repository.AttributeRepository = fakeAttributes{}
	_ repository.SummaryCache        = (*mockCache)(nil)
)
