// Package cart implements the per-session shopping cart: line merging,
// coupon application, and pre-order totals.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/greengrocer/internal/domain/coupon"
	"github.com/xenking/greengrocer/internal/domain/product"
)

// Line is a single cart entry. A cart holds at most one line per product.
type Line struct {
	Product  product.Product
	Quantity decimal.Decimal
}

// Total returns quantity times the product's current effective price.
func (l Line) Total() decimal.Decimal {
	return l.Product.EffectivePrice().Mul(l.Quantity)
}

// Cart is a transient, single-owner collection of lines with an optional
// applied coupon. It is owned by one caller at a time and is not safe for
// concurrent mutation.
type Cart struct {
	coupons coupon.Repository
	now     func() time.Time

	lines   []Line
	applied *coupon.Coupon
}

// New creates an empty cart that validates coupons against the given
// repository.
func New(coupons coupon.Repository) *Cart {
	return &Cart{coupons: coupons, now: time.Now}
}

// AddItem adds quantity of the product to the cart, merging into the existing
// line when the product is already present.
func (c *Cart) AddItem(p product.Product, quantity decimal.Decimal) {
	for i := range c.lines {
		if c.lines[i].Product.ID == p.ID {
			c.lines[i].Quantity = c.lines[i].Quantity.Add(quantity)
			return
		}
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: quantity})
}

// RemoveItem removes the line for the given product id. It reports whether a
// line was removed.
func (c *Cart) RemoveItem(productID int64) bool {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
	}
	return false
}

// Lines returns the current cart lines.
func (c *Cart) Lines() []Line {
	return c.lines
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Subtotal returns the sum of line totals before any discount.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

// ApplyCoupon looks up the code and applies it to the cart. The coupon must be
// active, inside its validity window, and the cart's pre-discount subtotal
// must meet the coupon's minimum. Any failure clears a previously applied
// coupon before returning the error.
func (c *Cart) ApplyCoupon(ctx context.Context, code string) error {
	c.applied = nil

	cp, err := c.coupons.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, coupon.ErrInvalidCoupon) {
			return coupon.ErrInvalidCoupon
		}
		return errors.Wrap(err, "lookup coupon")
	}

	if !cp.Active {
		return coupon.ErrInvalidCoupon
	}
	if !cp.ValidAt(c.now()) {
		return coupon.ErrCouponExpired
	}
	if c.Subtotal().LessThan(cp.MinTotal) {
		return coupon.ErrMinTotalNotMet
	}

	c.applied = cp
	return nil
}

// AppliedCoupon returns the currently applied coupon, or nil.
func (c *Cart) AppliedCoupon() *coupon.Coupon {
	return c.applied
}

// RemoveCoupon clears the applied coupon.
func (c *Cart) RemoveCoupon() {
	c.applied = nil
}

// Total returns the cart total. The pre-discount subtotal is recomputed from
// the current lines; the applied coupon is honored only if that subtotal still
// meets its minimum.
func (c *Cart) Total() decimal.Decimal {
	total := c.Subtotal()
	if c.applied != nil {
		total = total.Sub(c.applied.DiscountFor(total))
	}
	return total
}

// Clear removes all lines and the applied coupon.
func (c *Cart) Clear() {
	c.lines = nil
	c.applied = nil
}
