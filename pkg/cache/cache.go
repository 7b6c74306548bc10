// Package cache provides the cache port used by the affinity engine.
//
// The engine follows a cache-aside pattern: reads go through GetOrCompute,
// writes invalidate by key pattern. Keys and patterns are derived by the
// typed builders in keys.go so that invalidation never depends on strings
// hand-typed at call sites. A cache backend failure is never allowed to
// block correctness - reads fall through to live computation.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Store is the key-value cache port. Implementations must tolerate
// concurrent Get/Set/Delete from multiple requests.
type Store interface {
	// Get returns the cached value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores a value with the given TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// DeleteByPattern removes every key matching a glob-style pattern.
	DeleteByPattern(ctx context.Context, pattern string) error
}

// GetOrCompute reads a JSON-encoded value from the cache, calling compute
// and storing its result on a miss. Cache backend errors are logged and
// swallowed; the computed value is always returned to the caller.
// A nil store disables caching entirely.
func GetOrCompute[T any](ctx context.Context, store Store, logger *zap.Logger, key Key, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var zero T

	if store == nil {
		return compute(ctx)
	}

	if raw, ok, err := store.Get(ctx, key.String()); err != nil {
		logger.Warn("cache read failed, computing live",
			zap.String("key", key.String()),
			zap.Error(err))
	} else if ok {
		var cached T
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
		// Undecodable entry: treat as a miss and overwrite below.
		logger.Warn("discarding undecodable cache entry", zap.String("key", key.String()))
	}

	value, err := compute(ctx)
	if err != nil {
		return zero, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		logger.Warn("failed to encode value for cache",
			zap.String("key", key.String()),
			zap.Error(err))
		return value, nil
	}

	if err := store.Set(ctx, key.String(), string(encoded), ttl); err != nil {
		logger.Warn("cache write failed",
			zap.String("key", key.String()),
			zap.Error(err))
	}

	return value, nil
}

// InvalidatePatterns deletes every entry matching the given patterns.
// Errors are logged, not returned: over-invalidation is cheap and a cache
// backend outage must not fail the triggering write.
func InvalidatePatterns(ctx context.Context, store Store, logger *zap.Logger, patterns []string) {
	if store == nil {
		return
	}
	for _, pattern := range patterns {
		if err := store.DeleteByPattern(ctx, pattern); err != nil {
			logger.Warn("cache invalidation failed",
				zap.String("pattern", pattern),
				zap.Error(err))
		}
	}
}
