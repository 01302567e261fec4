package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/greengrocer/internal/domain/cart"
	"github.com/xenking/greengrocer/internal/domain/coupon"
	"github.com/xenking/greengrocer/internal/domain/product"
	"github.com/xenking/greengrocer/internal/domain/user"
)

// --- Mock implementations ---

type mockLoyalty struct {
	percent decimal.Decimal
	err     error
}

func (m *mockLoyalty) Evaluate(_ context.Context, _ int64) (decimal.Decimal, error) {
	return m.percent, m.err
}

type stockCall struct {
	productID int64
	amount    decimal.Decimal
}

type mockStock struct {
	calls   []stockCall
	failIDs map[int64]bool
	errIDs  map[int64]bool
}

func (m *mockStock) DecreaseStock(_ context.Context, productID int64, amount decimal.Decimal) (bool, error) {
	m.calls = append(m.calls, stockCall{productID: productID, amount: amount})
	if m.errIDs[productID] {
		return false, errors.New("ledger unavailable")
	}
	return !m.failIDs[productID], nil
}

type mockOrderRepo struct {
	lastOrder *Order
	createErr error
	created   int
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created++
	o.ID = int64(m.created)
	m.lastOrder = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, _ int64) (*Order, error) { return nil, ErrNotFound }
func (m *mockOrderRepo) ListByCustomer(_ context.Context, _ int64) ([]Order, error) {
	return nil, nil
}
func (m *mockOrderRepo) ListUnassigned(_ context.Context) ([]Order, error) { return nil, nil }
func (m *mockOrderRepo) ListByCarrier(_ context.Context, _ int64, _ Status) ([]Order, error) {
	return nil, nil
}
func (m *mockOrderRepo) CompletedOrderCount(_ context.Context, _ int64) (int, error) { return 0, nil }
func (m *mockOrderRepo) AssignCarrier(_ context.Context, _, _ int64) (bool, error) {
	return false, nil
}
func (m *mockOrderRepo) MarkDelivered(_ context.Context, _ int64) (bool, error) { return false, nil }

type recordedInvoice struct {
	orderID      int64
	deliveryInfo string
}

type mockInvoices struct {
	records []recordedInvoice
	err     error
}

func (m *mockInvoices) Record(_ context.Context, o *Order, _ user.User, deliveryInfo string) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, recordedInvoice{orderID: o.ID, deliveryInfo: deliveryInfo})
	return nil
}

type mockCouponRepo struct {
	byCode map[string]*coupon.Coupon
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := m.byCode[code]
	if !ok {
		return nil, coupon.ErrInvalidCoupon
	}
	return c, nil
}

// --- Helpers ---

func newTestProduct(id int64, price string) product.Product {
	return product.Product{
		ID:                id,
		Name:              "Carrot",
		Category:          "VEGETABLE",
		BasePrice:         decimal.RequireFromString(price),
		StockQty:          decimal.NewFromInt(100),
		ScarcityThreshold: decimal.NewFromInt(5),
		Active:            true,
	}
}

func newTestUser() user.User {
	return user.User{ID: 7, FullName: "Ada Customer", Address: "12 Market St", Phone: "555-0199"}
}

type pipeline struct {
	svc      *Service
	loyalty  *mockLoyalty
	stock    *mockStock
	orders   *mockOrderRepo
	invoices *mockInvoices
}

func newPipeline() *pipeline {
	p := &pipeline{
		loyalty:  &mockLoyalty{percent: decimal.Zero},
		stock:    &mockStock{failIDs: map[int64]bool{}, errIDs: map[int64]bool{}},
		orders:   &mockOrderRepo{},
		invoices: &mockInvoices{},
	}
	p.svc = NewService(p.loyalty, p.stock, p.orders, p.invoices)
	return p
}

// --- Tests ---

func TestPlaceOrder_EmptyCart(t *testing.T) {
	p := newPipeline()
	crt := cart.New(&mockCouponRepo{})

	_, err := p.svc.PlaceOrder(context.Background(), newTestUser(), crt, "")

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, p.stock.calls, "no stock side effects on empty cart")
	assert.Zero(t, p.orders.created)
	assert.Empty(t, p.invoices.records)
}

func TestPlaceOrder_SnapshotsUnitPrices(t *testing.T) {
	p := newPipeline()

	scarce := newTestProduct(1, "10.00")
	scarce.StockQty = decimal.NewFromInt(3) // scarcity price in effect

	crt := cart.New(&mockCouponRepo{})
	crt.AddItem(scarce, decimal.RequireFromString("1.5"))

	o, err := p.svc.PlaceOrder(context.Background(), newTestUser(), crt, "")
	require.NoError(t, err)

	require.Len(t, o.Lines, 1)
	assert.True(t, decimal.NewFromInt(20).Equal(o.Lines[0].UnitPrice))
	assert.True(t, decimal.NewFromInt(30).Equal(o.Lines[0].LineTotal))
	assert.True(t, decimal.NewFromInt(30).Equal(o.TotalAmount))
}

func TestPlaceOrder_StacksCouponThenLoyalty(t *testing.T) {
	p := newPipeline()
	p.loyalty.percent = decimal.NewFromInt(5)

	coupons := &mockCouponRepo{byCode: map[string]*coupon.Coupon{
		"SAVE10": {
			Code:            "SAVE10",
			DiscountPercent: decimal.NewFromInt(10),
			MinTotal:        decimal.NewFromInt(100),
			Active:          true,
		},
	}}

	crt := cart.New(coupons)
	crt.AddItem(newTestProduct(1, "50.00"), decimal.NewFromInt(4)) // 200
	require.NoError(t, crt.ApplyCoupon(context.Background(), "SAVE10"))

	o, err := p.svc.PlaceOrder(context.Background(), newTestUser(), crt, "")
	require.NoError(t, err)

	// 200 -> coupon 10% -> 180 -> loyalty 5% -> 171. Sequential, not combined.
	want := decimal.RequireFromString("171.00")
	assert.True(t, want.Equal(o.TotalAmount), "expected %s, got %s", want, o.TotalAmount)
	assert.True(t, decimal.NewFromInt(5).Equal(o.LoyaltyDiscountPercent))
}

func TestPlaceOrder_LoyaltyIneligible(t *testing.T) {
	p := newPipeline()

	crt := cart.New(&mockCouponRepo{})
	crt.AddItem(newTestProduct(1, "50.00"), decimal.NewFromInt(4))

	o, err := p.svc.PlaceOrder(context.Background(), newTestUser(), crt, "")
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(200).Equal(o.TotalAmount))
	assert.True(t, o.LoyaltyDiscountPercent.IsZero())
}

func TestPlaceOrder_StockFailureDoesNotAbort(t *testing.T) {
	p := newPipeline()
	p.stock.failIDs[2] = true
	p.stock.errIDs[3] = true

	crt := cart.New(&mockCouponRepo{})
	crt.AddItem(newTestProduct(1, "10.00"), decimal.NewFromInt(1))
	crt.AddItem(newTestProduct(2, "10.00"), decimal.NewFromInt(1))
	crt.AddItem(newTestProduct(3, "10.00"), decimal.NewFromInt(1))

	o, err := p.svc.PlaceOrder(context.Background(), newTestUser(), crt, "")
	require.NoError(t, err, "failed decrements must not abort placement")

	assert.Len(t, p.stock.calls, 3, "every line gets a decrement attempt")
	assert.Equal(t, 1, p.orders.created)
	require.Len(t, p.invoices.records, 1)
	assert.Equal(t, o.ID, p.invoices.records[0].orderID)
}

func TestPlaceOrder_PersistenceFailureIsFatal(t *testing.T) {
	p := newPipeline()
	p.orders.createErr = errors.New("db write failed")

	crt := cart.New(&mockCouponRepo{})
	crt.AddItem(newTestProduct(1, "10.00"), decimal.NewFromInt(1))

	_, err := p.svc.PlaceOrder(context.Background(), newTestUser(), crt, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
	assert.Empty(t, p.invoices.records, "no invoice for a failed order")
	assert.False(t, crt.IsEmpty(), "cart survives a failed placement")
}

func TestPlaceOrder_ClearsCartAndSetsMetadata(t *testing.T) {
	p := newPipeline()

	crt := cart.New(&mockCouponRepo{})
	crt.AddItem(newTestProduct(1, "10.00"), decimal.NewFromInt(2))

	before := time.Now()
	o, err := p.svc.PlaceOrder(context.Background(), newTestUser(), crt, "leave at door")
	require.NoError(t, err)

	assert.True(t, crt.IsEmpty())
	assert.Equal(t, StatusPlaced, o.Status)
	assert.Equal(t, int64(7), o.CustomerID)
	assert.Equal(t, "12 Market St | Delivery: leave at door", o.AddressSnapshot)
	assert.False(t, o.OrderTime.Before(before))
	assert.Equal(t, o.OrderTime.Add(24*time.Hour), o.RequestedDeliveryTime)
	assert.Nil(t, o.DeliveredAt)
	assert.Positive(t, o.ID)
}

func TestPlaceOrder_RoundTripTotalMatchesStackedFormula(t *testing.T) {
	p := newPipeline()
	p.loyalty.percent = decimal.NewFromInt(5)

	coupons := &mockCouponRepo{byCode: map[string]*coupon.Coupon{
		"SAVE10": {
			Code:            "SAVE10",
			DiscountPercent: decimal.NewFromInt(10),
			MinTotal:        decimal.NewFromInt(100),
			Active:          true,
		},
	}}

	crt := cart.New(coupons)
	crt.AddItem(newTestProduct(1, "33.40"), decimal.NewFromInt(3))
	crt.AddItem(newTestProduct(2, "17.25"), decimal.NewFromInt(2))
	require.NoError(t, crt.ApplyCoupon(context.Background(), "SAVE10"))

	o, err := p.svc.PlaceOrder(context.Background(), newTestUser(), crt, "")
	require.NoError(t, err)

	rawSum := decimal.Zero
	for _, l := range o.Lines {
		rawSum = rawSum.Add(l.LineTotal)
	}

	hundred := decimal.NewFromInt(100)
	afterCoupon := rawSum.Sub(rawSum.Mul(decimal.NewFromInt(10)).Div(hundred))
	want := afterCoupon.Sub(afterCoupon.Mul(decimal.NewFromInt(5)).Div(hundred)).Round(2)

	assert.True(t, want.Equal(o.TotalAmount), "expected %s, got %s", want, o.TotalAmount)
}

func TestPlaceOrder_RepeatedPlacementCreatesDuplicateInvoices(t *testing.T) {
	p := newPipeline()
	coupons := &mockCouponRepo{}

	for range 2 {
		crt := cart.New(coupons)
		crt.AddItem(newTestProduct(1, "10.00"), decimal.NewFromInt(1))
		_, err := p.svc.PlaceOrder(context.Background(), newTestUser(), crt, "")
		require.NoError(t, err)
	}

	// No idempotency guard anywhere in the pipeline: two placements, two
	// orders, two invoice records.
	assert.Equal(t, 2, p.orders.created)
	assert.Len(t, p.invoices.records, 2)
}
