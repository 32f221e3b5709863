// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus collectors for the search engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	// SearchesTotal counts accepted search invocations.
	SearchesTotal prometheus.Counter

	// CacheHits counts searches served from the result cache.
	CacheHits prometheus.Counter

	// CacheMisses counts searches that required a dispatch.
	CacheMisses prometheus.Counter

	// SourceFailures counts failed source outcomes, labelled by source.
	SourceFailures *prometheus.CounterVec

	// Superseded counts searches discarded by a newer generation.
	Superseded prometheus.Counter

	// SearchDuration observes end-to-end search latency in seconds.
	SearchDuration prometheus.Histogram
}

// New registers and returns the engine collectors. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SearchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "stylesearch_searches_total",
			Help: "Total accepted search invocations.",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "stylesearch_cache_hits_total",
			Help: "Searches served from the result cache.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "stylesearch_cache_misses_total",
			Help: "Searches that required a source dispatch.",
		}),
		SourceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stylesearch_source_failures_total",
			Help: "Failed source outcomes by source.",
		}, []string{"source"}),
		Superseded: factory.NewCounter(prometheus.CounterOpts{
			Name: "stylesearch_superseded_total",
			Help: "Searches discarded because a newer query superseded them.",
		}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "stylesearch_search_duration_seconds",
			Help:    "End-to-end search latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
