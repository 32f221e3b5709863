// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/atelier-commerce/stylesearch/pkg/types"
)

// keyPrefix namespaces engine entries so Clear never touches foreign keys
// in a shared Redis.
const keyPrefix = "stylesearch:result:"

// Redis is the shared-cache tier for deployments where several engine
// instances should serve each other's aggregations. Values are
// JSON-marshalled SearchResults; Redis owns TTL expiry.
type Redis struct {
	client     *redis.Client
	defaultTTL time.Duration
	logger     *zap.Logger
}

// NewRedis connects a Redis-backed result cache. A zero ttl uses
// DefaultTTL; a nil logger is replaced with a no-op.
func NewRedis(addr, password string, ttl time.Duration, logger *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{
		client:     redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		defaultTTL: ttl,
		logger:     logger.With(zap.String("component", "cache")),
	}
}

// Get fetches and unmarshals the entry for key. redis.Nil is a plain miss.
func (r *Redis) Get(ctx context.Context, key string) (types.SearchResult, bool, error) {
	data, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return types.SearchResult{}, false, nil
		}
		r.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return types.SearchResult{}, false, fmt.Errorf("cache get: %w", err)
	}

	var result types.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		// A corrupt entry is unrecoverable; drop it and report a miss.
		r.client.Del(ctx, keyPrefix+key)
		return types.SearchResult{}, false, fmt.Errorf("cache entry corrupt: %w", err)
	}
	return result, true, nil
}

// Put marshals and stores result under key with the given TTL.
func (r *Redis) Put(ctx context.Context, key string, result types.SearchResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		r.logger.Warn("cache put failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Invalidate removes one entry.
func (r *Redis) Invalidate(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// Clear removes every engine entry by prefix scan.
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache clear: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache clear scan: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
