package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/greengrocer/internal/domain/settings"
)

const (
	getSettingsSQL = `SELECT min_cart_value, loyalty_min_completed, loyalty_discount_percent
		FROM owner_settings ORDER BY id LIMIT 1`

	upsertSettingsSQL = `INSERT INTO owner_settings (id, min_cart_value, loyalty_min_completed, loyalty_discount_percent)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			min_cart_value = EXCLUDED.min_cart_value,
			loyalty_min_completed = EXCLUDED.loyalty_min_completed,
			loyalty_discount_percent = EXCLUDED.loyalty_discount_percent`
)

var _ settings.Repository = (*SettingsRepository)(nil)

// SettingsRepository reads the owner settings singleton from PostgreSQL.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository returns a SettingsRepository that uses the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get returns the settings row, or (nil, nil) when none exists yet.
func (r *SettingsRepository) Get(ctx context.Context) (*settings.OwnerSettings, error) {
	var s settings.OwnerSettings
	err := r.pool.QueryRow(ctx, getSettingsSQL).Scan(
		&s.MinCartValue, &s.LoyaltyMinCompleted, &s.LoyaltyDiscountPercent,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting owner settings: %w", err)
	}
	return &s, nil
}

// Put writes the settings singleton. Used by seeding.
func (r *SettingsRepository) Put(ctx context.Context, s settings.OwnerSettings) error {
	_, err := r.pool.Exec(ctx, upsertSettingsSQL,
		s.MinCartValue, s.LoyaltyMinCompleted, s.LoyaltyDiscountPercent,
	)
	if err != nil {
		return fmt.Errorf("putting owner settings: %w", err)
	}
	return nil
}
