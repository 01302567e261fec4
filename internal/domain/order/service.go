package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/greengrocer/internal/domain/cart"
	"github.com/xenking/greengrocer/internal/domain/product"
	"github.com/xenking/greengrocer/internal/domain/user"
)

// LoyaltyPolicy decides the loyalty discount percent for a customer. A zero
// percent means not eligible.
type LoyaltyPolicy interface {
	Evaluate(ctx context.Context, customerID int64) (decimal.Decimal, error)
}

// InvoiceRecorder renders and persists an invoice for a placed order.
type InvoiceRecorder interface {
	Record(ctx context.Context, o *Order, u user.User, deliveryInfo string) error
}

// Service is the order placement pipeline: pricing snapshot, discount
// stacking, best-effort stock reservation, transactional persistence, and
// invoice recording.
type Service struct {
	loyalty  LoyaltyPolicy
	stock    product.StockLedger
	orders   Repository
	invoices InvoiceRecorder
	now      func() time.Time
}

// NewService creates the placement pipeline with its dependencies.
func NewService(
	loyalty LoyaltyPolicy,
	stock product.StockLedger,
	orders Repository,
	invoices InvoiceRecorder,
) *Service {
	return &Service{
		loyalty:  loyalty,
		stock:    stock,
		orders:   orders,
		invoices: invoices,
		now:      time.Now,
	}
}

// PlaceOrder turns the cart into a persisted order for the given customer.
//
// The cart total already carries the coupon discount; the loyalty discount is
// stacked second, on the coupon-adjusted figure. Unit prices are snapshotted
// at this instant and never change afterwards.
//
// Stock decrements are best effort and run outside the order transaction: a
// failed decrement is logged and placement continues, and a crash between the
// order commit and the decrements leaves stock behind the order. The order
// header and lines themselves are written all-or-nothing; a persistence
// failure rolls back and is returned to the caller.
//
// On success the cart is cleared and the order carries its generated id.
func (s *Service) PlaceOrder(ctx context.Context, u user.User, crt *cart.Cart, deliveryInfo string) (*Order, error) {
	if crt.IsEmpty() {
		return nil, ErrEmptyCart
	}

	now := s.now()

	// Freeze the pricing snapshot before anything mutates stock.
	cartLines := crt.Lines()
	lines := make([]Line, len(cartLines))
	for i, l := range cartLines {
		unitPrice := l.Product.EffectivePrice()
		lines[i] = Line{
			ProductID: l.Product.ID,
			Quantity:  l.Quantity,
			UnitPrice: unitPrice,
			LineTotal: unitPrice.Mul(l.Quantity),
		}
	}

	// Coupon discount first (already inside the cart total), loyalty second on
	// the discounted figure. The stacking order is sequential, not combined.
	total := crt.Total()

	loyaltyPercent, err := s.loyalty.Evaluate(ctx, u.ID)
	if err != nil {
		return nil, errors.Wrap(err, "evaluate loyalty")
	}
	if loyaltyPercent.IsPositive() {
		total = total.Sub(total.Mul(loyaltyPercent).Div(decimal.NewFromInt(100)))
	}

	o := &Order{
		CustomerID:             u.ID,
		OrderTime:              now,
		RequestedDeliveryTime:  now.Add(24 * time.Hour),
		Status:                 StatusPlaced,
		TotalAmount:            total.Round(2),
		LoyaltyDiscountPercent: loyaltyPercent,
		AddressSnapshot:        u.Address + " | Delivery: " + deliveryInfo,
		Lines:                  lines,
	}

	// Best-effort stock reservation. Not part of the order transaction; a
	// lost race or insufficient stock is logged and never aborts placement.
	lg := zctx.From(ctx)
	for _, line := range o.Lines {
		ok, err := s.stock.DecreaseStock(ctx, line.ProductID, line.Quantity)
		switch {
		case err != nil:
			lg.Warn("stock decrement error",
				zap.Int64("product_id", line.ProductID),
				zap.Error(err),
			)
		case !ok:
			lg.Warn("could not decrease stock",
				zap.Int64("product_id", line.ProductID),
				zap.String("quantity", line.Quantity.String()),
			)
		}
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if err := s.invoices.Record(ctx, o, u, deliveryInfo); err != nil {
		// The order is committed at this point; a failed invoice write is not
		// a reason to report the whole placement as failed.
		lg.Warn("record invoice", zap.Int64("order_id", o.ID), zap.Error(err))
	}

	crt.Clear()

	return o, nil
}
