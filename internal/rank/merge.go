// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"sort"

	"github.com/atelier-commerce/stylesearch/internal/dispatch"
	"github.com/atelier-commerce/stylesearch/pkg/types"
)

// DefaultLimit caps the result list when the query sets no limit.
const DefaultLimit = 20

// SuggestFunc produces fallback query suggestions for an empty result.
type SuggestFunc func(q types.SearchQuery) []string

// Merger combines per-source outcomes into the final SearchResult.
type Merger struct {
	// Limit is the default truncation size. Zero means DefaultLimit.
	Limit int

	// Suggest supplies fallback suggestions when the result is empty.
	// Nil disables suggestions.
	Suggest SuggestFunc
}

// Merge concatenates all successful outcomes' records in dispatch order
// (local catalog first), deduplicates, scores, drops zero-score records,
// sorts by the requested strategy, and truncates. Merging is pure and
// deterministic: the same outcomes always produce the same result.
func (m *Merger) Merge(q types.SearchQuery, outcomes []dispatch.Outcome) types.SearchResult {
	var all []types.ProductRecord
	var errs []types.SourceError
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, types.SourceError{SourceID: o.SourceID, Reason: o.Err.Error()})
			continue
		}
		all = append(all, o.Records...)
	}

	deduped, removed := Dedupe(all)

	terms := q.Terms()
	scored := make([]types.ProductRecord, 0, len(deduped))
	for _, r := range deduped {
		s := Score(terms, r)
		if s <= 0 {
			continue
		}
		r.Relevance = s
		scored = append(scored, r)
	}

	sortRecords(scored, q.Filters.Sort)

	limit := q.Filters.Limit
	if limit <= 0 {
		limit = m.Limit
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}

	result := types.SearchResult{
		Records:     scored,
		Total:       len(scored),
		Sources:     contributors(scored),
		Errors:      errs,
		DupsRemoved: removed,
		Partial:     len(errs) > 0,
	}

	if len(scored) == 0 && m.Suggest != nil {
		result.Suggestions = m.Suggest(q)
	}
	return result
}

// sortRecords orders records by strategy. Sorting is stable, so records
// with equal keys keep concatenation order: local catalog before remote
// sources, then source registration order.
func sortRecords(records []types.ProductRecord, strategy types.SortStrategy) {
	switch strategy {
	case types.SortPriceLow:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Price < records[j].Price
		})
	case types.SortPriceHigh:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Price > records[j].Price
		})
	case types.SortRating:
		sort.SliceStable(records, func(i, j int) bool {
			return lessOptionalDesc(records[i].Rating, records[j].Rating)
		})
	case types.SortReviews:
		sort.SliceStable(records, func(i, j int) bool {
			a, b := records[i].ReviewCount, records[j].ReviewCount
			var af, bf *float64
			if a != nil {
				v := float64(*a)
				af = &v
			}
			if b != nil {
				v := float64(*b)
				bf = &v
			}
			return lessOptionalDesc(af, bf)
		})
	default: // relevance
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Relevance > records[j].Relevance
		})
	}
}

// lessOptionalDesc orders present values descending; records lacking the
// field sort last.
func lessOptionalDesc(a, b *float64) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a > *b
	}
}

// contributors returns the ordered, unique source IDs of the surviving records.
func contributors(records []types.ProductRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		if _, ok := seen[r.SourceID]; ok {
			continue
		}
		seen[r.SourceID] = struct{}{}
		out = append(out, r.SourceID)
	}
	return out
}
