package providers

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider stores short-lived upstream aggregates shared by all pollers
type CacheProvider interface {
	// Get retrieves a value, returning ErrCacheMiss when there is none
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value
	Delete(ctx context.Context, key string) error

	// Exists checks if a key is present
	Exists(ctx context.Context, key string) (bool, error)
}
