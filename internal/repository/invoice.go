package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/greengrocer/internal/domain/invoice"
)

// Plain INSERT: no uniqueness on order_id, so repeated placements produce
// duplicate invoice rows.
const saveInvoiceSQL = `INSERT INTO invoices (order_id, text) VALUES ($1, $2)`

var _ invoice.Repository = (*InvoiceRepository)(nil)

// InvoiceRepository stores rendered invoices in PostgreSQL.
type InvoiceRepository struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository returns an InvoiceRepository that uses the given pool.
func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

// Save stores the rendered invoice text for the order.
func (r *InvoiceRepository) Save(ctx context.Context, orderID int64, text string) error {
	_, err := r.pool.Exec(ctx, saveInvoiceSQL, orderID, text)
	if err != nil {
		return fmt.Errorf("saving invoice for order %d: %w", orderID, err)
	}
	return nil
}
