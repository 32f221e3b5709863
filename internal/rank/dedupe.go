// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"strings"
	"unicode"

	"github.com/atelier-commerce/stylesearch/pkg/types"
)

// Key returns the canonical dedup key for a title: lower-cased with all
// non-alphanumeric characters stripped. "Block Heeled Sandals" and
// "block-heeled sandals!!" collapse to the same key.
func Key(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Dedupe collapses records that share a title key, keeping the first seen.
// Concatenation order therefore decides which source wins a duplicate:
// the merger always places the local catalog's records first. No fuzzy
// matching is attempted beyond exact key equality.
func Dedupe(records []types.ProductRecord) ([]types.ProductRecord, int) {
	seen := make(map[string]struct{}, len(records))
	deduped := make([]types.ProductRecord, 0, len(records))
	removed := 0

	for _, r := range records {
		key := Key(r.Title)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			removed++
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, r)
	}
	return deduped, removed
}
