// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/atelier-commerce/stylesearch/internal/cache"
	"github.com/atelier-commerce/stylesearch/internal/dispatch"
	"github.com/atelier-commerce/stylesearch/internal/metrics"
	"github.com/atelier-commerce/stylesearch/internal/rank"
	"github.com/atelier-commerce/stylesearch/internal/source"
	"github.com/atelier-commerce/stylesearch/pkg/types"
)

// countingAdapter records how often it is queried and can block until
// released, to simulate a slow remote source.
type countingAdapter struct {
	id      string
	records []types.ProductRecord
	err     error
	calls   int32

	// blockTerm makes queries for that term wait on release.
	blockTerm string
	started   chan struct{}
	release   chan struct{}
}

func (a *countingAdapter) ID() string   { return a.id }
func (a *countingAdapter) Name() string { return a.id }

func (a *countingAdapter) Query(ctx context.Context, q types.SearchQuery) ([]types.ProductRecord, error) {
	atomic.AddInt32(&a.calls, 1)
	if a.blockTerm != "" && q.Term == a.blockTerm {
		if a.started != nil {
			a.started <- struct{}{}
		}
		select {
		case <-a.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.err != nil {
		return nil, a.err
	}
	var out []types.ProductRecord
	for _, r := range a.records {
		out = append(out, r)
	}
	return out, nil
}

func (a *countingAdapter) callCount() int32 { return atomic.LoadInt32(&a.calls) }

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func sandal(id, title, sourceID string, price float64) types.ProductRecord {
	return types.ProductRecord{ID: id, Title: title, Category: "shoes", SourceID: sourceID, Price: price}
}

func newTestController(clock *fakeClock, adapters ...source.Adapter) *Controller {
	reg := source.NewRegistry()
	for _, a := range adapters {
		reg.Register(a, true)
	}
	merger := &rank.Merger{Suggest: func(q types.SearchQuery) []string {
		return rank.Suggestions(q, []string{"shoes", "dresses"})
	}}
	mem := cache.NewMemory(5*time.Minute, clock.now)
	met := metrics.New(prometheus.NewRegistry())
	return New(reg, dispatch.New(time.Second, nil), merger, mem,
		Config{CacheTTL: 5 * time.Minute}, met, nil)
}

func TestSearchShortTermSkipsDispatch(t *testing.T) {
	adapter := &countingAdapter{id: "local", records: []types.ProductRecord{sandal("l1", "Sandals", "local", 120)}}
	ctrl := newTestController(&fakeClock{t: time.Unix(1700000000, 0)}, adapter)

	for _, term := range []string{"", " ", "a", "s "} {
		res, err := ctrl.Search(context.Background(), term, Options{})
		if err != nil {
			t.Fatalf("Search(%q) error = %v", term, err)
		}
		if res.Total != 0 {
			t.Errorf("Search(%q).Total = %d, want 0", term, res.Total)
		}
	}
	if adapter.callCount() != 0 {
		t.Errorf("adapter called %d times for invalid queries, want 0", adapter.callCount())
	}
}

func TestSearchCacheCoherence(t *testing.T) {
	adapter := &countingAdapter{id: "local", records: []types.ProductRecord{sandal("l1", "Block Heeled Sandals", "local", 120)}}
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	ctrl := newTestController(clock, adapter)
	ctx := context.Background()

	first, err := ctrl.Search(ctx, "sandals", Options{})
	if err != nil {
		t.Fatalf("first Search: %v", err)
	}
	if first.Cached {
		t.Error("first search reported Cached")
	}
	if ctrl.State() != StateCompleted {
		t.Errorf("state = %s, want %s", ctrl.State(), StateCompleted)
	}

	second, err := ctrl.Search(ctx, "sandals", Options{})
	if err != nil {
		t.Fatalf("second Search: %v", err)
	}
	if !second.Cached {
		t.Fatal("second identical search within TTL missed the cache")
	}
	if adapter.callCount() != 1 {
		t.Errorf("adapter called %d times, want 1 (second search cached)", adapter.callCount())
	}
	if !reflect.DeepEqual(first.Records, second.Records) {
		t.Errorf("cached records differ:\nfirst  = %+v\nsecond = %+v", first.Records, second.Records)
	}

	third, _ := ctrl.Search(ctx, "sandals", Options{})
	secondCopy := second
	if !reflect.DeepEqual(secondCopy, third) {
		t.Errorf("two cache hits are not deep-equal:\n%+v\n%+v", second, third)
	}

	// TTL expiry forces a fresh dispatch.
	clock.advance(6 * time.Minute)
	fresh, err := ctrl.Search(ctx, "sandals", Options{})
	if err != nil {
		t.Fatalf("post-expiry Search: %v", err)
	}
	if fresh.Cached {
		t.Error("post-expiry search served from cache")
	}
	if adapter.callCount() != 2 {
		t.Errorf("adapter called %d times, want 2 after TTL expiry", adapter.callCount())
	}
}

func TestSearchBypassSkipsCacheRead(t *testing.T) {
	adapter := &countingAdapter{id: "local", records: []types.ProductRecord{sandal("l1", "Sandals", "local", 120)}}
	ctrl := newTestController(&fakeClock{t: time.Unix(1700000000, 0)}, adapter)
	ctx := context.Background()

	ctrl.Search(ctx, "sandals", Options{})
	res, err := ctrl.Search(ctx, "sandals", Options{Bypass: true})
	if err != nil {
		t.Fatalf("bypass Search: %v", err)
	}
	if res.Cached {
		t.Error("bypass search served from cache")
	}
	if adapter.callCount() != 2 {
		t.Errorf("adapter called %d times, want 2 with bypass", adapter.callCount())
	}
}

func TestSearchPartialResultFromFailedSource(t *testing.T) {
	healthy := &countingAdapter{id: "local", records: []types.ProductRecord{sandal("l1", "Sandals", "local", 120)}}
	failing := &countingAdapter{id: "nordline", err: errors.New("HTTP 502")}
	ctrl := newTestController(&fakeClock{t: time.Unix(1700000000, 0)}, healthy, failing)

	res, err := ctrl.Search(context.Background(), "sandals", Options{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 {
		t.Errorf("Total = %d, want the healthy source's record", res.Total)
	}
	if len(res.Errors) != 1 || res.Errors[0].SourceID != "nordline" {
		t.Errorf("Errors = %+v, want one nordline entry", res.Errors)
	}
	if !res.Partial {
		t.Error("Partial = false, want true")
	}

	// Partial aggregations are still cached as best effort.
	res2, _ := ctrl.Search(context.Background(), "sandals", Options{})
	if !res2.Cached || !res2.Partial {
		t.Errorf("repeat search: Cached = %v, Partial = %v, want both true", res2.Cached, res2.Partial)
	}
}

func TestSearchTotalFailureDegradesGracefully(t *testing.T) {
	a := &countingAdapter{id: "local", err: errors.New("database locked")}
	b := &countingAdapter{id: "nordline", err: errors.New("HTTP 503")}
	ctrl := newTestController(&fakeClock{t: time.Unix(1700000000, 0)}, a, b)
	ctx := context.Background()

	res, err := ctrl.Search(ctx, "sandals", Options{})
	if err != nil {
		t.Fatalf("Search: %v, want degraded result instead of error", err)
	}
	if res.Total != 0 || len(res.Errors) != 2 {
		t.Errorf("res = %+v, want empty records and two errors", res)
	}
	if len(res.Suggestions) == 0 {
		t.Error("Suggestions empty, want fallback terms")
	}

	// Total failures are not cached; the next attempt re-dispatches.
	ctrl.Search(ctx, "sandals", Options{})
	if a.callCount() != 2 {
		t.Errorf("adapter called %d times, want 2 (total failure not cached)", a.callCount())
	}
}

func TestSearchSupersession(t *testing.T) {
	adapter := &countingAdapter{
		id:        "local",
		records:   []types.ProductRecord{sandal("l1", "Alpha Sandals", "local", 120)},
		blockTerm: "alpha sandals",
		started:   make(chan struct{}, 1),
		release:   make(chan struct{}),
	}
	ctrl := newTestController(&fakeClock{t: time.Unix(1700000000, 0)}, adapter)
	ctx := context.Background()

	type outcome struct {
		res types.SearchResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := ctrl.Search(ctx, "alpha sandals", Options{})
		done <- outcome{res, err}
	}()

	// Wait until the stale query is in flight, then supersede it.
	<-adapter.started
	resB, errB := ctrl.Search(ctx, "beta dresses", Options{})
	if errB != nil {
		t.Fatalf("newer Search: %v", errB)
	}
	if resB.Total != 0 {
		// "beta dresses" matches nothing in the fixture; the point is it completed.
		t.Errorf("newer search Total = %d", resB.Total)
	}

	close(adapter.release)
	got := <-done
	if !errors.Is(got.err, ErrSuperseded) {
		t.Fatalf("stale Search error = %v, want ErrSuperseded", got.err)
	}
	if got.res.Total != 0 || got.res.Records != nil {
		t.Errorf("stale search leaked a result: %+v", got.res)
	}
	if ctrl.State() != StateSuperseded {
		t.Errorf("state = %s, want %s", ctrl.State(), StateSuperseded)
	}

	// The superseded aggregation is still cached under its own key.
	res, err := ctrl.Search(ctx, "alpha sandals", Options{})
	if err != nil {
		t.Fatalf("re-issued Search: %v", err)
	}
	if !res.Cached {
		t.Error("re-issued query missed the cache, want the superseded aggregation reused")
	}
	if res.Total != 1 || res.Records[0].ID != "l1" {
		t.Errorf("re-issued query result = %+v", res)
	}
}

func TestClearCacheForcesRedispatch(t *testing.T) {
	adapter := &countingAdapter{id: "local", records: []types.ProductRecord{sandal("l1", "Sandals", "local", 120)}}
	ctrl := newTestController(&fakeClock{t: time.Unix(1700000000, 0)}, adapter)
	ctx := context.Background()

	ctrl.Search(ctx, "sandals", Options{})
	if err := ctrl.ClearCache(ctx); err != nil {
		t.Fatalf("ClearCache: %v", err)
	}
	ctrl.Search(ctx, "sandals", Options{})
	if adapter.callCount() != 2 {
		t.Errorf("adapter called %d times, want 2 after cache clear", adapter.callCount())
	}
}
