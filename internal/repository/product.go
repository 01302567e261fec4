package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/greengrocer/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, category, base_price, stock_qty, scarcity_threshold, active
		FROM products WHERE active = TRUE ORDER BY id`

	getProductByIDSQL = `SELECT id, name, category, base_price, stock_qty, scarcity_threshold, active
		FROM products WHERE id = $1`

	// Single conditional write: the decrement takes effect only when current
	// stock covers the amount. This is the oversell guard; it must never be
	// split into a read followed by a write.
	decreaseStockSQL = `UPDATE products SET stock_qty = stock_qty - $2
		WHERE id = $1 AND stock_qty >= $2`

	createProductSQL = `INSERT INTO products (name, category, base_price, stock_qty, scarcity_threshold, active)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
)

var (
	_ product.Repository  = (*ProductRepository)(nil)
	_ product.StockLedger = (*ProductRepository)(nil)
)

// ProductRepository implements product.Repository and product.StockLedger
// backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all active products ordered by id.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

// DecreaseStock atomically decrements stock when enough remains. The boolean
// reports whether the row was updated.
func (r *ProductRepository) DecreaseStock(ctx context.Context, productID int64, amount decimal.Decimal) (bool, error) {
	tag, err := r.pool.Exec(ctx, decreaseStockSQL, productID, amount)
	if err != nil {
		return false, fmt.Errorf("decreasing stock for product %d: %w", productID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Create inserts a new product and fills in the generated id. Used by seeding.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	err := r.pool.QueryRow(ctx, createProductSQL,
		p.Name, p.Category, p.BasePrice, p.StockQty, p.ScarcityThreshold, p.Active,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.Name, err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Category,
		&p.BasePrice, &p.StockQty, &p.ScarcityThreshold, &p.Active,
	)
	return p, err
}
