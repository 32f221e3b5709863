// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session is the engine entry point: it guards queries, consults
// the result cache, triggers dispatch and merge on a miss, and supersedes
// stale in-flight searches when a newer query arrives.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/atelier-commerce/stylesearch/internal/cache"
	"github.com/atelier-commerce/stylesearch/internal/dispatch"
	"github.com/atelier-commerce/stylesearch/internal/metrics"
	"github.com/atelier-commerce/stylesearch/internal/rank"
	"github.com/atelier-commerce/stylesearch/internal/source"
	"github.com/atelier-commerce/stylesearch/pkg/types"
)

// ErrSuperseded reports that a newer query arrived while this search was
// in flight; the stale result was computed but never delivered.
var ErrSuperseded = errors.New("search superseded by a newer query")

// State is the controller's position in the search lifecycle. One
// controller corresponds to one logical search box.
type State string

const (
	StateIdle        State = "idle"
	StateDispatching State = "dispatching"
	StateCompleted   State = "completed"
	StateSuperseded  State = "superseded"
)

// DefaultMinTermLength rejects queries below this many runes before any
// dispatch happens.
const DefaultMinTermLength = 2

// Config holds controller settings.
type Config struct {
	// CacheTTL is the lifetime of cached aggregations. Zero uses the
	// cache default.
	CacheTTL time.Duration

	// MinTermLength overrides DefaultMinTermLength when positive.
	MinTermLength int
}

// Options carries the per-search filter set and cache behavior.
type Options struct {
	// Filters is the price/category/limit/sort constraint set.
	Filters types.Filters

	// Bypass skips the cache read (the write still happens). Callers use
	// it to force a fresh aggregation after seeing a partial result.
	Bypass bool
}

// Controller coordinates one search session. Safe for concurrent use;
// the generation counter decides which of several interleaved searches
// is delivered.
type Controller struct {
	id            string
	registry      *source.Registry
	dispatcher    *dispatch.Dispatcher
	merger        *rank.Merger
	cache         cache.Cache
	cacheTTL      time.Duration
	minTermLength int
	gen           *atomic.Uint64
	group         singleflight.Group
	metrics       *metrics.Metrics
	logger        *zap.Logger

	mu    sync.Mutex
	state State
}

// New builds a controller. metrics and logger may be nil.
func New(reg *source.Registry, d *dispatch.Dispatcher, m *rank.Merger, c cache.Cache, cfg Config, met *metrics.Metrics, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	minTerm := cfg.MinTermLength
	if minTerm <= 0 {
		minTerm = DefaultMinTermLength
	}
	id := uuid.NewString()
	return &Controller{
		id:            id,
		registry:      reg,
		dispatcher:    d,
		merger:        m,
		cache:         c,
		cacheTTL:      cfg.CacheTTL,
		minTermLength: minTerm,
		gen:           atomic.NewUint64(0),
		metrics:       met,
		logger:        logger.With(zap.String("session", id)),
		state:         StateIdle,
	}
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Search runs one federated search: cache lookup, then dispatch + merge on
// a miss. The caller always receives a well-formed SearchResult; source
// failures degrade the result instead of raising. A search overtaken by a
// newer one returns ErrSuperseded and its result is dropped, though the
// aggregation is still cached under its own query-derived key.
func (c *Controller) Search(ctx context.Context, term string, opts Options) (types.SearchResult, error) {
	start := time.Now()
	q := types.NewSearchQuery(term, opts.Filters)

	// Too-short queries are rejected before the generation counter moves,
	// so a stray keystroke never supersedes a real in-flight search.
	if len([]rune(q.Term)) < c.minTermLength {
		c.logger.Debug("query below minimum length", zap.String("term", q.Term))
		return types.SearchResult{}, nil
	}

	gen := c.gen.Inc()
	q.Generation = gen
	c.setState(StateDispatching)
	if c.metrics != nil {
		c.metrics.SearchesTotal.Inc()
	}

	key := q.CacheKey()
	if !opts.Bypass {
		if res, ok := c.lookup(ctx, key); ok {
			if c.metrics != nil {
				c.metrics.CacheHits.Inc()
			}
			return c.deliver(res, gen, start)
		}
		if c.metrics != nil {
			c.metrics.CacheMisses.Inc()
		}
	}

	// Concurrent identical queries collapse into one dispatch; each
	// caller still gets its own generation check.
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.aggregate(ctx, q, key, start), nil
	})
	if err != nil {
		// The aggregate closure never errors; keep the compiler honest.
		return types.SearchResult{}, err
	}
	return c.deliver(v.(types.SearchResult), gen, start)
}

// lookup consults the cache, treating store errors as misses.
func (c *Controller) lookup(ctx context.Context, key string) (types.SearchResult, bool) {
	res, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache lookup failed", zap.Error(err))
		return types.SearchResult{}, false
	}
	if !ok {
		return types.SearchResult{}, false
	}
	res.Cached = true
	return res, true
}

// aggregate fans out, merges, and caches one full aggregation.
func (c *Controller) aggregate(ctx context.Context, q types.SearchQuery, key string, start time.Time) types.SearchResult {
	adapters := c.registry.ListEnabled()
	outcomes := c.dispatcher.Dispatch(ctx, q, adapters)
	res := c.merger.Merge(q, outcomes)
	res.ElapsedMS = time.Since(start).Milliseconds()

	if c.metrics != nil {
		for _, e := range res.Errors {
			c.metrics.SourceFailures.WithLabelValues(e.SourceID).Inc()
		}
	}

	// A best-effort aggregation with some healthy sources is cacheable
	// (flagged Partial); a total failure is not worth pinning for a TTL.
	totalFailure := len(adapters) > 0 && len(res.Errors) == len(adapters)
	if !totalFailure {
		if err := c.cache.Put(ctx, key, res, c.cacheTTL); err != nil {
			c.logger.Warn("cache write failed", zap.Error(err))
		}
	}

	c.logger.Info("search aggregated",
		zap.String("term", q.Term),
		zap.Uint64("generation", q.Generation),
		zap.Int("records", res.Total),
		zap.Int("source_errors", len(res.Errors)),
		zap.Int64("elapsed_ms", res.ElapsedMS))
	return res
}

// deliver enforces the generation barrier: only the latest query's result
// reaches its caller.
func (c *Controller) deliver(res types.SearchResult, gen uint64, start time.Time) (types.SearchResult, error) {
	if gen != c.gen.Load() {
		c.setState(StateSuperseded)
		if c.metrics != nil {
			c.metrics.Superseded.Inc()
		}
		c.logger.Debug("search superseded", zap.Uint64("generation", gen))
		return types.SearchResult{}, ErrSuperseded
	}
	c.setState(StateCompleted)
	if c.metrics != nil {
		c.metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}
	return res, nil
}

// Invalidate removes one cached aggregation; external catalog-update
// events call this with the affected query's key.
func (c *Controller) Invalidate(ctx context.Context, key string) error {
	return c.cache.Invalidate(ctx, key)
}

// ClearCache drops every cached aggregation.
func (c *Controller) ClearCache(ctx context.Context) error {
	return c.cache.Clear(ctx)
}
