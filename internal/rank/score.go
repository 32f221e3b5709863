// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank scores, deduplicates, merges, and orders canonical product
// records from all sources into the final result envelope.
package rank

import (
	"strings"

	"github.com/atelier-commerce/stylesearch/pkg/types"
)

// Field weights for the term-match score. Each query term contributes
// independently; scores accumulate additively across terms.
const (
	weightTitle       = 10.0
	weightCategory    = 7.0
	weightBrand       = 5.0
	weightDescription = 3.0
)

// Score computes the relevance of a record against the query terms.
// Terms shorter than two runes are already dropped by SearchQuery.Terms.
// A zero score means the record matches nothing and must not appear in
// results. This is a ranking value, not a probability.
func Score(terms []string, r types.ProductRecord) float64 {
	if len(terms) == 0 {
		return 0
	}

	title := strings.ToLower(r.Title)
	category := strings.ToLower(r.Category)
	brand := strings.ToLower(r.Brand)
	description := strings.ToLower(r.Description)

	var score float64
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += weightTitle
		}
		if strings.Contains(category, term) {
			score += weightCategory
		}
		if strings.Contains(brand, term) {
			score += weightBrand
		}
		if strings.Contains(description, term) {
			score += weightDescription
		}
	}
	return score
}
