package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bluele/gcache"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/providers"
)

// MemoryAdapter implements CacheProvider with an in-process LRU. It is used
// when Redis is disabled or unreachable; entries are private to the process.
type MemoryAdapter struct {
	cache gcache.Cache
}

// NewMemoryAdapter creates an LRU cache holding at most size entries
func NewMemoryAdapter(size int) *MemoryAdapter {
	if size <= 0 {
		size = 1024
	}
	return &MemoryAdapter{cache: gcache.New(size).LRU().Build()}
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := a.cache.Get(key)
	if errors.Is(err, gcache.KeyNotFoundError) {
		return nil, providers.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}
	b, ok := value.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected cache value type %T for %s", value, key)
	}
	return append([]byte(nil), b...), nil
}

// Set stores a copy of value; a non-positive expiration keeps it until evicted
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	stored := append([]byte(nil), value...)
	var err error
	if expirationSeconds > 0 {
		err = a.cache.SetWithExpire(key, stored, time.Duration(expirationSeconds)*time.Second)
	} else {
		err = a.cache.Set(key, stored)
	}
	if err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	a.cache.Remove(key)
	return nil
}

// Exists checks if a live key exists in cache
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	return a.cache.Has(key), nil
}
