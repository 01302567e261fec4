// Package carrier implements the carrier-facing order flows: claiming an
// unassigned order and marking a delivery complete.
package carrier

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/greengrocer/internal/domain/order"
)

// Arbiter arbitrates which carrier claims an order. All safety comes from the
// repository's atomic conditional write; the arbiter itself holds no locks.
type Arbiter struct {
	orders order.Repository
}

// NewArbiter creates an Arbiter over the given order repository.
func NewArbiter(orders order.Repository) *Arbiter {
	return &Arbiter{orders: orders}
}

// Assign claims the order for the carrier. It returns false when another
// carrier already holds the order; callers should refresh their view and
// surface the conflict rather than retry.
func (a *Arbiter) Assign(ctx context.Context, orderID, carrierID int64) (bool, error) {
	won, err := a.orders.AssignCarrier(ctx, orderID, carrierID)
	if err != nil {
		return false, errors.Wrapf(err, "assign order %d to carrier %d", orderID, carrierID)
	}
	return won, nil
}

// Complete marks the order delivered and stamps the delivery time. It does not
// verify that the calling carrier owns the order.
func (a *Arbiter) Complete(ctx context.Context, orderID int64) (bool, error) {
	ok, err := a.orders.MarkDelivered(ctx, orderID)
	if err != nil {
		return false, errors.Wrapf(err, "complete order %d", orderID)
	}
	return ok, nil
}

// AvailableOrders lists placed orders no carrier has claimed yet.
func (a *Arbiter) AvailableOrders(ctx context.Context) ([]order.Order, error) {
	return a.orders.ListUnassigned(ctx)
}

// OrdersByCarrier lists the carrier's orders in the given status.
func (a *Arbiter) OrdersByCarrier(ctx context.Context, carrierID int64, status order.Status) ([]order.Order, error) {
	return a.orders.ListByCarrier(ctx, carrierID, status)
}
