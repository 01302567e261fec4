package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/greengrocer/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders
		(customer_id, order_time, requested_delivery_time, status, total_amount, loyalty_discount_percent, address_snapshot)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	createOrderLineSQL = `INSERT INTO order_lines (order_id, product_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5)`

	orderColumns = `id, customer_id, carrier_id, order_time, requested_delivery_time,
		delivered_at, status, total_amount, loyalty_discount_percent, address_snapshot`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByCustomerSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE customer_id = $1 ORDER BY order_time DESC`

	listUnassignedOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE carrier_id IS NULL AND status = 'PLACED' ORDER BY order_time`

	listOrdersByCarrierSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE carrier_id = $1 AND status = $2 ORDER BY order_time`

	listOrderLinesSQL = `SELECT order_id, product_id, quantity, unit_price, line_total
		FROM order_lines WHERE order_id = ANY($1) ORDER BY order_id`

	countCompletedOrdersSQL = `SELECT count(*) FROM orders
		WHERE customer_id = $1 AND status = 'DELIVERED'`

	// Conditional claim: only the first carrier to reach an unassigned order
	// gets the row. Everyone else sees zero rows affected.
	assignCarrierSQL = `UPDATE orders SET carrier_id = $2, status = 'ASSIGNED'
		WHERE id = $1 AND carrier_id IS NULL`

	markDeliveredSQL = `UPDATE orders SET status = 'DELIVERED', delivered_at = now()
		WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order header and all its lines in a single transaction
// and fills in the generated order id.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning order transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	err = tx.QueryRow(ctx, createOrderSQL,
		o.CustomerID, o.OrderTime, o.RequestedDeliveryTime,
		o.Status, o.TotalAmount, o.LoyaltyDiscountPercent, o.AddressSnapshot,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("creating order: %w", err)
	}

	for _, line := range o.Lines {
		_, err = tx.Exec(ctx, createOrderLineSQL,
			o.ID, line.ProductID, line.Quantity, line.UnitPrice, line.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("creating line for order %d: %w", o.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %d: %w", o.ID, err)
	}
	return nil
}

// GetByID returns a single order with its lines.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	orders := []order.Order{o}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// ListByCustomer returns the customer's orders, newest first, with lines.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID int64) ([]order.Order, error) {
	return r.list(ctx, listOrdersByCustomerSQL, customerID)
}

// ListUnassigned returns PLACED orders with no carrier, oldest first.
func (r *OrderRepository) ListUnassigned(ctx context.Context) ([]order.Order, error) {
	return r.list(ctx, listUnassignedOrdersSQL)
}

// ListByCarrier returns the carrier's orders in the given status.
func (r *OrderRepository) ListByCarrier(ctx context.Context, carrierID int64, status order.Status) ([]order.Order, error) {
	return r.list(ctx, listOrdersByCarrierSQL, carrierID, status)
}

// CompletedOrderCount returns the number of DELIVERED orders for the customer.
func (r *OrderRepository) CompletedOrderCount(ctx context.Context, customerID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, countCompletedOrdersSQL, customerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting completed orders for customer %d: %w", customerID, err)
	}
	return count, nil
}

// AssignCarrier claims the order for the carrier if it is still unassigned.
func (r *OrderRepository) AssignCarrier(ctx context.Context, orderID, carrierID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, assignCarrierSQL, orderID, carrierID)
	if err != nil {
		return false, fmt.Errorf("assigning carrier %d to order %d: %w", carrierID, orderID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkDelivered sets the order DELIVERED and stamps the delivery time.
func (r *OrderRepository) MarkDelivered(ctx context.Context, orderID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, markDeliveredSQL, orderID)
	if err != nil {
		return false, fmt.Errorf("marking order %d delivered: %w", orderID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *OrderRepository) list(ctx context.Context, sql string, args ...any) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachLines loads lines for all given orders with a single query.
func (r *OrderRepository) attachLines(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	byID := make(map[int64]*order.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
	}

	rows, err := r.pool.Query(ctx, listOrderLinesSQL, ids)
	if err != nil {
		return fmt.Errorf("listing order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int64
			line    order.Line
		)
		err := rows.Scan(&orderID, &line.ProductID, &line.Quantity, &line.UnitPrice, &line.LineTotal)
		if err != nil {
			return fmt.Errorf("scanning order line: %w", err)
		}
		o := byID[orderID]
		o.Lines = append(o.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("listing order lines: %w", err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		carrierID *int64
		status    string
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &carrierID, &o.OrderTime, &o.RequestedDeliveryTime,
		&o.DeliveredAt, &status, &o.TotalAmount, &o.LoyaltyDiscountPercent, &o.AddressSnapshot,
	)
	if err != nil {
		return order.Order{}, err
	}
	if carrierID != nil {
		o.CarrierID = *carrierID
	}
	o.Status = order.Status(status)
	return o, nil
}
