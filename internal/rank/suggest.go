// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"strings"

	"github.com/atelier-commerce/stylesearch/pkg/types"
)

// popularTerms are the generic fallback suggestions appended after any
// category-adjacent matches when a search comes up empty.
var popularTerms = []string{"sneakers", "dresses", "denim", "handbags", "new arrivals"}

const maxSuggestions = 5

// Suggestions builds fallback terms for an empty result: catalog
// categories adjacent to the query terms first, then generic popular
// search terms. The query's own term is never suggested back.
func Suggestions(q types.SearchQuery, categories []string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || s == q.Term {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	terms := q.Terms()
	for _, c := range categories {
		lc := strings.ToLower(c)
		for _, t := range terms {
			if strings.Contains(lc, t) || strings.Contains(t, lc) {
				add(c)
				break
			}
		}
	}

	for _, p := range popularTerms {
		if len(out) >= maxSuggestions {
			break
		}
		add(p)
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}
