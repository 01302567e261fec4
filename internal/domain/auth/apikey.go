// Package auth defines API key lookups for the HTTP surface.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrKeyNotFound is returned when no active API key matches a hash.
var ErrKeyNotFound = errors.New("api key not found")

// KeyInfo describes a stored API key and the customer it authenticates.
type KeyInfo struct {
	ID         string
	KeyHash    string
	CustomerID int64
	Name       string
}

// Repository provides API key lookups by HMAC-SHA256 hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*KeyInfo, error)
}
