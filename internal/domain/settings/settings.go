// Package settings holds the owner's singleton storefront policy record.
package settings

import (
	"context"

	"github.com/shopspring/decimal"
)

// OwnerSettings is the storefront-wide policy singleton.
type OwnerSettings struct {
	MinCartValue           decimal.Decimal
	LoyaltyMinCompleted    int
	LoyaltyDiscountPercent decimal.Decimal
}

// Repository reads the settings singleton. Get returns (nil, nil) when no
// settings row has been created yet; callers treat that as "no policy".
type Repository interface {
	Get(ctx context.Context) (*OwnerSettings, error)
}
