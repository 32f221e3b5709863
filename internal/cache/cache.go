// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache stores completed search aggregations keyed by normalized
// query + filter signature. Entries are immutable once written: Put
// overwrites wholesale, never partially mutates.
package cache

import (
	"context"
	"time"

	"github.com/atelier-commerce/stylesearch/pkg/types"
)

// DefaultTTL is how long a cached result set stays valid when the
// configuration sets no TTL.
const DefaultTTL = 5 * time.Minute

// Cache is the result cache contract. Get reports a miss with ok=false;
// an error means the backing store misbehaved and the caller should treat
// the lookup as a miss. Invalidate and Clear exist for external triggers
// such as a catalog update.
type Cache interface {
	Get(ctx context.Context, key string) (result types.SearchResult, ok bool, err error)
	Put(ctx context.Context, key string, result types.SearchResult, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
