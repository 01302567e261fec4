package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/greengrocer/internal/domain/order"
	"github.com/xenking/greengrocer/internal/domain/product"
)

func TestDecreaseStock_Conditional(t *testing.T) {
	s := NewProductStore()
	s.Put(product.Product{ID: 1, Name: "Pear", StockQty: decimal.NewFromInt(10)})

	ok, err := s.DecreaseStock(context.Background(), 1, decimal.NewFromInt(4))
	require.NoError(t, err)
	assert.True(t, ok)

	// Remaining 6 cannot cover 7.
	ok, err = s.DecreaseStock(context.Background(), 1, decimal.NewFromInt(7))
	require.NoError(t, err)
	assert.False(t, ok)

	p, err := s.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(6).Equal(p.StockQty))
}

func TestDecreaseStock_UnknownProduct(t *testing.T) {
	s := NewProductStore()

	ok, err := s.DecreaseStock(context.Background(), 99, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecreaseStock_ConcurrentRace(t *testing.T) {
	s := NewProductStore()
	s.Put(product.Product{ID: 1, Name: "Pear", StockQty: decimal.NewFromInt(10)})

	results := make([]bool, 2)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			ok, err := s.DecreaseStock(context.Background(), 1, decimal.NewFromInt(6))
			results[i] = ok
			return err
		})
	}
	require.NoError(t, g.Wait())

	// Exactly one of the two 6-unit decrements may win against stock of 10.
	assert.NotEqual(t, results[0], results[1], "exactly one decrement must succeed")

	p, err := s.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(4).Equal(p.StockQty), "final stock must be 4, got %s", p.StockQty)
	assert.False(t, p.StockQty.IsNegative())
}

func TestOrderStore_CreateAssignsIDs(t *testing.T) {
	s := NewOrderStore()

	o1 := &order.Order{CustomerID: 1, Status: order.StatusPlaced}
	o2 := &order.Order{CustomerID: 1, Status: order.StatusPlaced}
	require.NoError(t, s.Create(context.Background(), o1))
	require.NoError(t, s.Create(context.Background(), o2))

	assert.Equal(t, int64(1), o1.ID)
	assert.Equal(t, int64(2), o2.ID)
}

func TestOrderStore_CompletedOrderCount(t *testing.T) {
	s := NewOrderStore()
	ctx := context.Background()

	for range 3 {
		o := &order.Order{CustomerID: 7, Status: order.StatusPlaced}
		require.NoError(t, s.Create(ctx, o))
	}
	delivered := &order.Order{CustomerID: 7, Status: order.StatusPlaced}
	require.NoError(t, s.Create(ctx, delivered))
	_, err := s.MarkDelivered(ctx, delivered.ID)
	require.NoError(t, err)

	count, err := s.CompletedOrderCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOrderStore_AssignCarrierOnceOnly(t *testing.T) {
	s := NewOrderStore()
	ctx := context.Background()

	o := &order.Order{CustomerID: 1, Status: order.StatusPlaced}
	require.NoError(t, s.Create(ctx, o))

	won, err := s.AssignCarrier(ctx, o.ID, 10)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = s.AssignCarrier(ctx, o.ID, 11)
	require.NoError(t, err)
	assert.False(t, won, "second carrier must lose")

	got, err := s.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.CarrierID)
	assert.Equal(t, order.StatusAssigned, got.Status)
}
