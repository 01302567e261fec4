package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xenking/greengrocer/internal/domain/order"
	"github.com/xenking/greengrocer/internal/domain/user"
)

func TestRender(t *testing.T) {
	o := &order.Order{
		ID:          42,
		CustomerID:  7,
		OrderTime:   time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		Status:      order.StatusPlaced,
		TotalAmount: decimal.RequireFromString("171.00"),
		LoyaltyDiscountPercent: decimal.NewFromInt(5),
		Lines: []order.Line{
			{ProductID: 1, Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromInt(50), LineTotal: decimal.NewFromInt(200)},
		},
	}
	u := user.User{ID: 7, FullName: "Ada Customer", Address: "12 Market St", Phone: "555-0199"}

	text := Render(o, u, "tomorrow morning")

	assert.Contains(t, text, "Order ID: 42")
	assert.Contains(t, text, "Customer: Ada Customer")
	assert.Contains(t, text, "Address: 12 Market St")
	assert.Contains(t, text, "Phone: 555-0199")
	assert.Contains(t, text, "Delivery Info: tomorrow morning")
	assert.Contains(t, text, "Product ID 1 : 4.00 kg x 50.00 = 200.00")
	assert.Contains(t, text, "Loyalty Discount: 5.00%")
	assert.Contains(t, text, "TOTAL AMOUNT: 171.00")

	// Deterministic: rendering twice yields identical text.
	assert.Equal(t, text, Render(o, u, "tomorrow morning"))
}

func TestRender_NoLoyaltyLineWhenZero(t *testing.T) {
	o := &order.Order{
		ID:          1,
		OrderTime:   time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		TotalAmount: decimal.NewFromInt(50),
	}

	text := Render(o, user.User{}, "")
	assert.NotContains(t, text, "Loyalty Discount")
}
