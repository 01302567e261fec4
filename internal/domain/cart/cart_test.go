package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/greengrocer/internal/domain/coupon"
	"github.com/xenking/greengrocer/internal/domain/product"
)

type mockCouponRepo struct {
	byCode map[string]*coupon.Coupon
	err    error
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.byCode[code]
	if !ok {
		return nil, coupon.ErrInvalidCoupon
	}
	return c, nil
}

func newTestProduct(id int64, price string) product.Product {
	return product.Product{
		ID:                id,
		Name:              "Apple",
		Category:          "FRUIT",
		BasePrice:         decimal.RequireFromString(price),
		StockQty:          decimal.NewFromInt(100),
		ScarcityThreshold: decimal.NewFromInt(5),
		Active:            true,
	}
}

func save10() *coupon.Coupon {
	return &coupon.Coupon{
		Code:            "SAVE10",
		DiscountPercent: decimal.NewFromInt(10),
		MinTotal:        decimal.NewFromInt(100),
		Active:          true,
	}
}

func TestAddItem_MergesDuplicateProduct(t *testing.T) {
	c := New(&mockCouponRepo{})
	p := newTestProduct(1, "10.00")

	c.AddItem(p, decimal.NewFromInt(3))
	c.AddItem(p, decimal.NewFromInt(2))

	require.Len(t, c.Lines(), 1)
	assert.True(t, decimal.NewFromInt(5).Equal(c.Lines()[0].Quantity))
}

func TestAddItem_DistinctProducts(t *testing.T) {
	c := New(&mockCouponRepo{})
	c.AddItem(newTestProduct(1, "10.00"), decimal.NewFromInt(1))
	c.AddItem(newTestProduct(2, "20.00"), decimal.NewFromInt(1))

	assert.Len(t, c.Lines(), 2)
	assert.True(t, decimal.NewFromInt(30).Equal(c.Total()))
}

func TestRemoveItem(t *testing.T) {
	c := New(&mockCouponRepo{})
	c.AddItem(newTestProduct(1, "10.00"), decimal.NewFromInt(1))

	assert.True(t, c.RemoveItem(1))
	assert.False(t, c.RemoveItem(1))
	assert.True(t, c.IsEmpty())
}

func TestLineTotal_UsesEffectivePrice(t *testing.T) {
	scarce := newTestProduct(1, "10.00")
	scarce.StockQty = decimal.NewFromInt(4) // at or below threshold, price doubles

	c := New(&mockCouponRepo{})
	c.AddItem(scarce, decimal.NewFromInt(2))

	assert.True(t, decimal.NewFromInt(40).Equal(c.Total()))
}

func TestApplyCoupon_DiscountsTotal(t *testing.T) {
	repo := &mockCouponRepo{byCode: map[string]*coupon.Coupon{"SAVE10": save10()}}
	c := New(repo)
	c.AddItem(newTestProduct(1, "50.00"), decimal.NewFromInt(3)) // subtotal 150

	require.NoError(t, c.ApplyCoupon(context.Background(), "SAVE10"))

	got := c.Total()
	assert.True(t, decimal.NewFromInt(135).Equal(got), "expected 135, got %s", got)
}

func TestApplyCoupon_BelowMinimumFailsAndClears(t *testing.T) {
	repo := &mockCouponRepo{byCode: map[string]*coupon.Coupon{"SAVE10": save10()}}
	c := New(repo)
	c.AddItem(newTestProduct(1, "50.00"), decimal.NewFromInt(3))
	require.NoError(t, c.ApplyCoupon(context.Background(), "SAVE10"))

	// Shrink the cart below the minimum, then re-apply: the failure must also
	// clear the previously applied coupon.
	c.RemoveItem(1)
	c.AddItem(newTestProduct(1, "50.00"), decimal.NewFromInt(1)) // subtotal 50

	err := c.ApplyCoupon(context.Background(), "SAVE10")
	require.ErrorIs(t, err, coupon.ErrMinTotalNotMet)
	assert.Nil(t, c.AppliedCoupon())
	assert.True(t, decimal.NewFromInt(50).Equal(c.Total()))
}

func TestApplyCoupon_UnknownCodeClears(t *testing.T) {
	repo := &mockCouponRepo{byCode: map[string]*coupon.Coupon{"SAVE10": save10()}}
	c := New(repo)
	c.AddItem(newTestProduct(1, "50.00"), decimal.NewFromInt(3))
	require.NoError(t, c.ApplyCoupon(context.Background(), "SAVE10"))

	err := c.ApplyCoupon(context.Background(), "BOGUS")
	require.ErrorIs(t, err, coupon.ErrInvalidCoupon)
	assert.Nil(t, c.AppliedCoupon())
}

func TestApplyCoupon_InactiveAndExpired(t *testing.T) {
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := fixedNow.Add(-24 * time.Hour)

	inactive := save10()
	inactive.Active = false

	expired := save10()
	expired.ValidTo = &past

	repo := &mockCouponRepo{byCode: map[string]*coupon.Coupon{
		"INACTIVE": inactive,
		"EXPIRED":  expired,
	}}

	c := New(repo)
	c.now = func() time.Time { return fixedNow }
	c.AddItem(newTestProduct(1, "50.00"), decimal.NewFromInt(3))

	require.ErrorIs(t, c.ApplyCoupon(context.Background(), "INACTIVE"), coupon.ErrInvalidCoupon)
	require.ErrorIs(t, c.ApplyCoupon(context.Background(), "EXPIRED"), coupon.ErrCouponExpired)
	assert.True(t, decimal.NewFromInt(150).Equal(c.Total()))
}

func TestTotal_CouponIgnoredWhenMinimumNoLongerMet(t *testing.T) {
	repo := &mockCouponRepo{byCode: map[string]*coupon.Coupon{"SAVE10": save10()}}
	c := New(repo)
	c.AddItem(newTestProduct(1, "50.00"), decimal.NewFromInt(3))
	require.NoError(t, c.ApplyCoupon(context.Background(), "SAVE10"))

	// Lines changed after the coupon was applied; Total recomputes the
	// pre-discount sum and skips the discount when the minimum fails.
	c.RemoveItem(1)
	c.AddItem(newTestProduct(1, "50.00"), decimal.NewFromInt(1))

	assert.True(t, decimal.NewFromInt(50).Equal(c.Total()))
}

func TestClear(t *testing.T) {
	repo := &mockCouponRepo{byCode: map[string]*coupon.Coupon{"SAVE10": save10()}}
	c := New(repo)
	c.AddItem(newTestProduct(1, "50.00"), decimal.NewFromInt(3))
	require.NoError(t, c.ApplyCoupon(context.Background(), "SAVE10"))

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.Nil(t, c.AppliedCoupon())
	assert.True(t, c.Total().IsZero())
}
