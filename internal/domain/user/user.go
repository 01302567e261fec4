// Package user holds the customer identity consumed from the auth collaborator.
package user

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("user not found")

// User is the customer identity and contact details used for order snapshots
// and invoices.
type User struct {
	ID       int64
	FullName string
	Address  string
	Phone    string
}

// Repository defines read access to customer identities.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
}
