// Package memory provides mutex-guarded in-memory implementations of the
// domain repositories. The conditional writes (stock decrement, carrier
// assignment) have the same atomicity guarantees as the PostgreSQL
// implementations, which makes the stores suitable for concurrency tests and
// local demos.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/greengrocer/internal/domain/coupon"
	"github.com/xenking/greengrocer/internal/domain/invoice"
	"github.com/xenking/greengrocer/internal/domain/product"
	"github.com/xenking/greengrocer/internal/domain/settings"
	"github.com/xenking/greengrocer/internal/domain/user"
)

// ProductStore implements product.Repository and product.StockLedger.
type ProductStore struct {
	mu       sync.Mutex
	products map[int64]product.Product
}

var (
	_ product.Repository  = (*ProductStore)(nil)
	_ product.StockLedger = (*ProductStore)(nil)
)

// NewProductStore creates an empty ProductStore.
func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[int64]product.Product)}
}

// Put inserts or replaces a product.
func (s *ProductStore) Put(p product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// List returns all products ordered by id.
func (s *ProductStore) List(_ context.Context) ([]product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]product.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetByID returns the product with the given id.
func (s *ProductStore) GetByID(_ context.Context, id int64) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

// DecreaseStock performs the compare-and-decrement under the store mutex:
// the write takes effect only when current stock covers the amount.
func (s *ProductStore) DecreaseStock(_ context.Context, productID int64, amount decimal.Decimal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok || p.StockQty.LessThan(amount) {
		return false, nil
	}
	p.StockQty = p.StockQty.Sub(amount)
	s.products[productID] = p
	return true, nil
}

// CouponStore implements coupon.Repository.
type CouponStore struct {
	mu      sync.Mutex
	coupons map[string]coupon.Coupon
}

var _ coupon.Repository = (*CouponStore)(nil)

// NewCouponStore creates an empty CouponStore.
func NewCouponStore() *CouponStore {
	return &CouponStore{coupons: make(map[string]coupon.Coupon)}
}

// Put inserts or replaces a coupon.
func (s *CouponStore) Put(c coupon.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons[c.Code] = c
}

// FindByCode returns the coupon for the code, or coupon.ErrInvalidCoupon.
func (s *CouponStore) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[code]
	if !ok {
		return nil, coupon.ErrInvalidCoupon
	}
	return &c, nil
}

// SettingsStore implements settings.Repository.
type SettingsStore struct {
	mu  sync.Mutex
	cfg *settings.OwnerSettings
}

var _ settings.Repository = (*SettingsStore)(nil)

// NewSettingsStore creates a SettingsStore with no settings record.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{}
}

// Set replaces the settings singleton.
func (s *SettingsStore) Set(cfg settings.OwnerSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = &cfg
}

// Get returns the settings singleton, or (nil, nil) when unset.
func (s *SettingsStore) Get(_ context.Context) (*settings.OwnerSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg == nil {
		return nil, nil
	}
	cfg := *s.cfg
	return &cfg, nil
}

// UserStore implements user.Repository.
type UserStore struct {
	mu    sync.Mutex
	users map[int64]user.User
}

var _ user.Repository = (*UserStore)(nil)

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[int64]user.User)}
}

// Put inserts or replaces a user.
func (s *UserStore) Put(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// GetByID returns the user with the given id.
func (s *UserStore) GetByID(_ context.Context, id int64) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

// InvoiceStore implements invoice.Repository. Every Save appends; duplicates
// for the same order are kept, matching the persistence semantics.
type InvoiceStore struct {
	mu       sync.Mutex
	invoices []invoice.Invoice
	now      func() time.Time
}

var _ invoice.Repository = (*InvoiceStore)(nil)

// NewInvoiceStore creates an empty InvoiceStore.
func NewInvoiceStore() *InvoiceStore {
	return &InvoiceStore{now: time.Now}
}

// Save appends an invoice record for the order.
func (s *InvoiceStore) Save(_ context.Context, orderID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invoices = append(s.invoices, invoice.Invoice{
		OrderID:   orderID,
		Text:      text,
		CreatedAt: s.now(),
	})
	return nil
}

// ByOrder returns all invoices stored for the order.
func (s *InvoiceStore) ByOrder(orderID int64) []invoice.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []invoice.Invoice
	for _, inv := range s.invoices {
		if inv.OrderID == orderID {
			out = append(out, inv)
		}
	}
	return out
}
