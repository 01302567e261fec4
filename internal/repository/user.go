package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/greengrocer/internal/domain/user"
)

const (
	getUserByIDSQL = `SELECT id, full_name, address, phone FROM users WHERE id = $1`

	createUserSQL = `INSERT INTO users (full_name, address, phone)
		VALUES ($1, $2, $3) RETURNING id`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository provides customer identity lookups backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID returns the user by its identifier.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	err := r.pool.QueryRow(ctx, getUserByIDSQL, id).Scan(
		&u.ID, &u.FullName, &u.Address, &u.Phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user %d: %w", id, err)
	}
	return &u, nil
}

// Create inserts a new user and fills in the generated id. Used by seeding.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	err := r.pool.QueryRow(ctx, createUserSQL, u.FullName, u.Address, u.Phone).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}
