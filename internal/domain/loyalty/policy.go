// Package loyalty decides whether a customer has earned the loyalty discount.
package loyalty

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/greengrocer/internal/domain/settings"
)

// CompletedOrderCounter reports how many delivered orders a customer has.
type CompletedOrderCounter interface {
	CompletedOrderCount(ctx context.Context, customerID int64) (int, error)
}

// Policy grants the configured loyalty percent once a customer's
// completed-order count reaches the configured minimum.
type Policy struct {
	settings settings.Repository
	orders   CompletedOrderCounter
}

// NewPolicy creates a Policy over the given settings and order count sources.
func NewPolicy(settings settings.Repository, orders CompletedOrderCounter) *Policy {
	return &Policy{settings: settings, orders: orders}
}

// Evaluate returns the loyalty discount percent for the customer, or zero when
// the customer is not eligible or no settings record exists.
func (p *Policy) Evaluate(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	cfg, err := p.settings.Get(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "load owner settings")
	}
	if cfg == nil {
		return decimal.Zero, nil
	}

	completed, err := p.orders.CompletedOrderCount(ctx, customerID)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "count completed orders")
	}
	if completed < cfg.LoyaltyMinCompleted {
		return decimal.Zero, nil
	}

	return cfg.LoyaltyDiscountPercent, nil
}
