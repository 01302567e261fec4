package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item sold by fractional weight.
type Product struct {
	ID                int64
	Name              string
	Category          string
	BasePrice         decimal.Decimal
	StockQty          decimal.Decimal
	ScarcityThreshold decimal.Decimal
	Active            bool
}

// EffectivePrice returns the per-unit price after the scarcity rule: the base
// price doubles while remaining stock is at or below the threshold but not
// zero. A sold-out product keeps its base price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.StockQty.IsPositive() && p.StockQty.LessThanOrEqual(p.ScarcityThreshold) {
		return p.BasePrice.Mul(decimal.NewFromInt(2))
	}
	return p.BasePrice
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
}

// StockLedger performs the atomic conditional stock decrement. The decrement
// succeeds only when current stock covers the requested amount; the boolean
// reports whether the write took effect. This single conditional write is the
// sole oversell guard under concurrent purchases.
type StockLedger interface {
	DecreaseStock(ctx context.Context, productID int64, amount decimal.Decimal) (bool, error)
}
