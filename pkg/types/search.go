// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"unicode"
)

// SortStrategy selects the result ordering applied by the merger.
type SortStrategy string

const (
	SortRelevance SortStrategy = "relevance"
	SortPriceLow  SortStrategy = "price_low"
	SortPriceHigh SortStrategy = "price_high"
	SortRating    SortStrategy = "rating"
	SortReviews   SortStrategy = "reviews"
)

// ValidSort reports whether s names a known sort strategy.
func ValidSort(s SortStrategy) bool {
	switch s {
	case SortRelevance, SortPriceLow, SortPriceHigh, SortRating, SortReviews:
		return true
	}
	return false
}

// Filters narrows a search to a price band and category and bounds the
// result list. Zero values mean "no constraint".
type Filters struct {
	// MinPrice is the inclusive lower price bound. Zero disables it.
	MinPrice float64 `json:"min_price,omitempty" yaml:"min_price,omitempty"`

	// MaxPrice is the inclusive upper price bound. Zero disables it.
	MaxPrice float64 `json:"max_price,omitempty" yaml:"max_price,omitempty"`

	// Category restricts results to one category (case-insensitive).
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Limit caps the returned result list. Zero uses the engine default (20).
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`

	// Sort selects the ordering. Empty means relevance.
	Sort SortStrategy `json:"sort,omitempty" yaml:"sort,omitempty"`
}

// Match reports whether a record passes the price and category filters.
// Adapters apply this to their own output so out-of-band records from a
// permissive back-end never reach the merger.
func (f Filters) Match(r ProductRecord) bool {
	if f.MinPrice > 0 && r.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && r.Price > f.MaxPrice {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, r.Category) {
		return false
	}
	return true
}

// SearchQuery is a normalized query plus its filter set. The session
// controller assigns Generation; it increases monotonically per session
// and is never part of the cache key.
type SearchQuery struct {
	// Term is the query term, lower-cased and trimmed.
	Term string `json:"term" yaml:"term"`

	// Filters holds the price/category/limit/sort constraints.
	Filters Filters `json:"filters" yaml:"filters"`

	// Generation tags the query for supersession checks.
	Generation uint64 `json:"-" yaml:"-"`
}

// NewSearchQuery normalizes term and builds a query.
func NewSearchQuery(term string, f Filters) SearchQuery {
	return SearchQuery{Term: strings.ToLower(strings.TrimSpace(term)), Filters: f}
}

// Terms splits the query into match terms. Terms shorter than two runes
// contribute nothing to scoring and are dropped here.
func (q SearchQuery) Terms() []string {
	var terms []string
	for _, t := range strings.FieldsFunc(q.Term, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(t)) >= 2 {
			terms = append(terms, t)
		}
	}
	return terms
}

// CacheKey returns the cache key for this query: the normalized term plus
// a filter signature. Generation is deliberately excluded so a superseded
// search still caches under the key a repeat of the same query will hit.
func (q SearchQuery) CacheKey() string {
	sortBy := q.Filters.Sort
	if sortBy == "" {
		sortBy = SortRelevance
	}
	return fmt.Sprintf("%s|min=%g|max=%g|cat=%s|sort=%s|limit=%d",
		q.Term, q.Filters.MinPrice, q.Filters.MaxPrice,
		strings.ToLower(q.Filters.Category), sortBy, q.Filters.Limit)
}

// SourceError records one failed source outcome.
type SourceError struct {
	// SourceID identifies the failed adapter.
	SourceID string `json:"source_id" yaml:"source_id"`

	// Reason is a short failure description ("timeout", HTTP status, ...).
	Reason string `json:"reason" yaml:"reason"`
}

// SearchResult is the envelope returned to callers: the ranked, deduped
// record list plus aggregation metadata. It is always well-formed: total
// source failure yields an empty list with Errors populated, never an
// error to the caller.
type SearchResult struct {
	// Records is the ranked, deduplicated, truncated result list.
	Records []ProductRecord `json:"records" yaml:"records"`

	// Total is the record count after truncation.
	Total int `json:"total" yaml:"total"`

	// ElapsedMS is the wall time spent producing this result.
	ElapsedMS int64 `json:"elapsed_ms" yaml:"elapsed_ms"`

	// Sources lists every source that contributed at least one surviving
	// record, in dispatch order.
	Sources []string `json:"sources" yaml:"sources"`

	// Errors summarizes each failed source. Empty on a clean aggregation.
	Errors []SourceError `json:"errors,omitempty" yaml:"errors,omitempty"`

	// Suggestions holds fallback query terms, set only when Records is empty.
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`

	// DupsRemoved counts records dropped by deduplication.
	DupsRemoved int `json:"dups_removed" yaml:"dups_removed"`

	// Partial marks a best-effort aggregation where at least one source
	// failed. Partial results are still cached; callers that want a full
	// aggregation may bypass the cache and retry.
	Partial bool `json:"partial" yaml:"partial"`

	// Cached marks a result served from the result cache.
	Cached bool `json:"cached" yaml:"cached"`
}
