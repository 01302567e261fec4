package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEffectivePrice(t *testing.T) {
	base := decimal.RequireFromString("12.50")
	doubled := decimal.RequireFromString("25.00")

	tests := []struct {
		name      string
		stock     string
		threshold string
		want      decimal.Decimal
	}{
		{name: "stock above threshold keeps base price", stock: "50", threshold: "10", want: base},
		{name: "stock at threshold doubles", stock: "10", threshold: "10", want: doubled},
		{name: "stock below threshold doubles", stock: "0.5", threshold: "10", want: doubled},
		{name: "zero stock keeps base price", stock: "0", threshold: "10", want: base},
		{name: "zero threshold never doubles", stock: "3", threshold: "0", want: base},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{
				Name:              "Tomato",
				BasePrice:         base,
				StockQty:          decimal.RequireFromString(tt.stock),
				ScarcityThreshold: decimal.RequireFromString(tt.threshold),
				Active:            true,
			}
			got := p.EffectivePrice()
			assert.True(t, tt.want.Equal(got), "expected %s, got %s", tt.want, got)
		})
	}
}
