package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/greengrocer/internal/domain/coupon"
)

const getCouponByCodeSQL = `SELECT code, discount_percent, min_total, valid_from, valid_to, active
	FROM coupons WHERE code = $1`

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository provides coupon lookups backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode returns the coupon regardless of its active flag; activity and
// validity window checks belong to the caller. Unknown codes map to
// coupon.ErrInvalidCoupon.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	var c coupon.Coupon
	err := r.pool.QueryRow(ctx, getCouponByCodeSQL, code).Scan(
		&c.Code, &c.DiscountPercent, &c.MinTotal, &c.ValidFrom, &c.ValidTo, &c.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrInvalidCoupon
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

const upsertCouponSQL = `INSERT INTO coupons (code, discount_percent, min_total, valid_from, valid_to, active)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (code) DO UPDATE SET
		discount_percent = EXCLUDED.discount_percent,
		min_total = EXCLUDED.min_total,
		valid_from = EXCLUDED.valid_from,
		valid_to = EXCLUDED.valid_to,
		active = EXCLUDED.active`

// Upsert inserts or replaces a coupon. Used by seeding and bulk promo ingest.
func (r *CouponRepository) Upsert(ctx context.Context, c coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, upsertCouponSQL,
		c.Code, c.DiscountPercent, c.MinTotal, c.ValidFrom, c.ValidTo, c.Active,
	)
	if err != nil {
		return fmt.Errorf("upserting coupon %q: %w", c.Code, err)
	}
	return nil
}
