package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state. An order is created PLACED, claimed by
// exactly one carrier into ASSIGNED, then marked DELIVERED.
type Status string

const (
	StatusPlaced    Status = "PLACED"
	StatusAssigned  Status = "ASSIGNED"
	StatusDelivered Status = "DELIVERED"
)

var (
	// ErrEmptyCart is returned when placement is attempted on a cart with no
	// lines. No side effects occur.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
)

// Line is an order line with the unit price frozen at purchase time. Lines
// never change after the order is created.
type Line struct {
	ProductID int64
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Order is a placed customer order. CarrierID is zero until a carrier wins the
// assignment race; AddressSnapshot is a point-in-time copy taken at placement.
type Order struct {
	ID                     int64
	CustomerID             int64
	CarrierID              int64
	OrderTime              time.Time
	RequestedDeliveryTime  time.Time
	DeliveredAt            *time.Time
	Status                 Status
	TotalAmount            decimal.Decimal
	LoyaltyDiscountPercent decimal.Decimal
	AddressSnapshot        string
	Lines                  []Line
}

// Repository defines persistence operations for orders.
//
// AssignCarrier and MarkDelivered are the storage-level atomic writes the
// carrier flows rely on; Create must persist the header and all lines in one
// transaction.
type Repository interface {
	// Create persists the order header and lines atomically and fills in the
	// generated order id.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Order, error)
	ListUnassigned(ctx context.Context) ([]Order, error)
	ListByCarrier(ctx context.Context, carrierID int64, status Status) ([]Order, error)
	// CompletedOrderCount returns the number of DELIVERED orders for the
	// customer.
	CompletedOrderCount(ctx context.Context, customerID int64) (int, error)
	// AssignCarrier sets the carrier and ASSIGNED status only when the order
	// has no carrier yet. It reports whether this caller won the write.
	AssignCarrier(ctx context.Context, orderID, carrierID int64) (bool, error)
	// MarkDelivered unconditionally sets DELIVERED and stamps delivered_at.
	// It reports whether the order existed.
	MarkDelivered(ctx context.Context, orderID int64) (bool, error)
}
