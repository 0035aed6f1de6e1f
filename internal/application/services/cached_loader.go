package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/providers"
	"github.com/moonlysoftware/dashboard-intro-week/internal/infrastructure/observability"
)

// cachedLoader serves JSON values from the shared cache and lets at most one
// computation per key run at a time. Callers that arrive while a computation
// is in flight wait for its result.
type cachedLoader struct {
	name    string
	cache   providers.CacheProvider
	metrics *observability.Metrics
	group   singleflight.Group
}

func newCachedLoader(name string, cache providers.CacheProvider, metrics *observability.Metrics) *cachedLoader {
	return &cachedLoader{name: name, cache: cache, metrics: metrics}
}

// loadCached returns the cached value under key, or runs compute and caches
// its result for ttlSeconds. A failed computation is returned and not cached.
// compute runs detached from the caller's cancellation so that a poller
// giving up does not fail the other waiters; it must bound its own work.
func loadCached[T any](ctx context.Context, l *cachedLoader, key string, ttlSeconds int, compute func(context.Context) (T, error)) (T, error) {
	var zero T

	if l.cache != nil {
		raw, err := l.cache.Get(ctx, key)
		switch {
		case err == nil:
			var value T
			if err := json.Unmarshal(raw, &value); err == nil {
				observability.RecordCacheHit(ctx, l.metrics, l.name)
				return value, nil
			}
			log.Warn().Str("cache", l.name).Str("key", key).Msg("discarding undecodable cache entry")
		case !errors.Is(err, providers.ErrCacheMiss):
			log.Warn().Err(err).Str("cache", l.name).Str("key", key).Msg("cache read failed")
		}
		observability.RecordCacheMiss(ctx, l.metrics, l.name)
	}

	detached := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (interface{}, error) {
		value, err := compute(detached)
		if err != nil {
			return nil, err
		}
		l.store(detached, key, value, ttlSeconds)
		return value, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (l *cachedLoader) store(ctx context.Context, key string, value interface{}, ttlSeconds int) {
	if l.cache == nil || ttlSeconds <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("cache", l.name).Str("key", key).Msg("failed to encode cache entry")
		return
	}
	if err := l.cache.Set(ctx, key, raw, ttlSeconds); err != nil {
		log.Warn().Err(err).Str("cache", l.name).Str("key", key).Msg("cache write failed")
	}
}
