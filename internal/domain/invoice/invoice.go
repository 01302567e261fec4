// Package invoice renders and records human-readable invoices for placed
// orders.
package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/greengrocer/internal/domain/order"
	"github.com/xenking/greengrocer/internal/domain/user"
)

// Invoice is a stored invoice document.
type Invoice struct {
	OrderID   int64
	Text      string
	CreatedAt time.Time
}

// Repository stores rendered invoices. Save does not check for an existing
// invoice for the order; repeated calls create duplicate records.
type Repository interface {
	Save(ctx context.Context, orderID int64, text string) error
}

// Recorder renders an order into its invoice document and persists it.
type Recorder struct {
	repo Repository
}

// NewRecorder creates a Recorder backed by the given repository.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record renders the invoice text and stores it for the order.
func (r *Recorder) Record(ctx context.Context, o *order.Order, u user.User, deliveryInfo string) error {
	if err := r.repo.Save(ctx, o.ID, Render(o, u, deliveryInfo)); err != nil {
		return errors.Wrapf(err, "save invoice for order %d", o.ID)
	}
	return nil
}

// Render produces the deterministic invoice document: header, customer
// identity, delivery info, one line per order line, a loyalty line when a
// loyalty discount applied, and the final total.
func Render(o *order.Order, u user.User, deliveryInfo string) string {
	var sb strings.Builder
	sb.WriteString("============= INVOICE =============\n")
	fmt.Fprintf(&sb, "Order ID: %d\n", o.ID)
	fmt.Fprintf(&sb, "Date: %s\n", o.OrderTime.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Customer: %s\n", u.FullName)
	fmt.Fprintf(&sb, "Address: %s\n", u.Address)
	fmt.Fprintf(&sb, "Phone: %s\n", u.Phone)
	fmt.Fprintf(&sb, "Delivery Info: %s\n", deliveryInfo)
	sb.WriteString("-----------------------------------\n")
	for _, line := range o.Lines {
		fmt.Fprintf(&sb, "Product ID %d : %s kg x %s = %s\n",
			line.ProductID,
			line.Quantity.StringFixed(2),
			line.UnitPrice.StringFixed(2),
			line.LineTotal.StringFixed(2),
		)
	}
	sb.WriteString("-----------------------------------\n")
	if o.LoyaltyDiscountPercent.IsPositive() {
		fmt.Fprintf(&sb, "Loyalty Discount: %s%%\n", o.LoyaltyDiscountPercent.StringFixed(2))
	}
	fmt.Fprintf(&sb, "TOTAL AMOUNT: %s\n", o.TotalAmount.StringFixed(2))
	sb.WriteString("===================================\n")
	return sb.String()
}
