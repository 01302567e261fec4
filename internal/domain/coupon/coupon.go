package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCoupon is returned when a coupon code is not found or inactive.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrCouponExpired is returned when a coupon is outside its valid time window.
	ErrCouponExpired = errors.New("coupon expired")
	// ErrMinTotalNotMet is returned when the cart's pre-discount total is below
	// the coupon's minimum.
	ErrMinTotalNotMet = errors.New("cart total below coupon minimum")
)

// Coupon is a time- and minimum-total-bounded percentage discount keyed by code.
// Nil window bounds mean unbounded on that side.
type Coupon struct {
	Code            string
	DiscountPercent decimal.Decimal
	MinTotal        decimal.Decimal
	ValidFrom       *time.Time
	ValidTo         *time.Time
	Active          bool
}

// ValidAt reports whether the coupon's time window contains now.
func (c *Coupon) ValidAt(now time.Time) bool {
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidTo != nil && now.After(*c.ValidTo) {
		return false
	}
	return true
}

// DiscountFor returns the discount amount for the given total, or zero when
// the total does not meet the coupon's minimum.
func (c *Coupon) DiscountFor(total decimal.Decimal) decimal.Decimal {
	if total.LessThan(c.MinTotal) {
		return decimal.Zero
	}
	return total.Mul(c.DiscountPercent).Div(decimal.NewFromInt(100))
}

// Repository provides coupon lookups.
type Repository interface {
	// FindByCode returns the coupon for the given code regardless of its
	// active flag or window; ErrInvalidCoupon when no such code exists.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}
