// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize maps raw source payloads into canonical ProductRecords.
// It fails closed: a record that cannot be parsed into a valid ProductRecord
// is dropped, never propagated as an error.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/atelier-commerce/stylesearch/pkg/types"
)

// RawProduct is the loosely-typed product shape retail back-ends return.
// Field names vary per retailer ("title" vs "name", string vs numeric
// prices); the alternates below cover the shapes seen in the wild.
type RawProduct struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Title         string          `json:"title"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand"`
	Description   string          `json:"description"`
	Price         json.RawMessage `json:"price"`
	OriginalPrice json.RawMessage `json:"original_price"`
	Rating        *float64        `json:"rating"`
	ReviewCount   *int            `json:"review_count"`
	Availability  string          `json:"availability"`
	Shipping      string          `json:"shipping"`
	ImageURL      string          `json:"image_url"`
}

// Records converts raw products from one source into canonical records.
// Invalid raws (missing identifier or title, unparsable or negative price)
// are dropped. Out-of-range optional fields are cleared rather than
// dropping the whole record.
func Records(sourceID string, raws []RawProduct) []types.ProductRecord {
	var records []types.ProductRecord
	for _, raw := range raws {
		r, err := Record(sourceID, raw)
		if err != nil {
			continue
		}
		records = append(records, r)
	}
	return records
}

// Record converts one raw product. Callers that need per-record drop
// reasons (tests, debug tooling) use this directly; Records ignores them.
func Record(sourceID string, raw RawProduct) (types.ProductRecord, error) {
	id := raw.ID
	if id == "" {
		id = raw.SKU
	}
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = strings.TrimSpace(raw.Name)
	}

	price, err := ParsePrice(raw.Price)
	if err != nil {
		return types.ProductRecord{}, fmt.Errorf("product %q: %w", id, err)
	}

	r := types.ProductRecord{
		ID:           id,
		Title:        title,
		Category:     strings.TrimSpace(strings.ToLower(raw.Category)),
		Brand:        strings.TrimSpace(raw.Brand),
		Description:  strings.TrimSpace(raw.Description),
		Price:        price,
		Rating:       raw.Rating,
		ReviewCount:  raw.ReviewCount,
		Availability: raw.Availability,
		Shipping:     raw.Shipping,
		ImageURL:     raw.ImageURL,
		SourceID:     sourceID,
	}

	if len(raw.OriginalPrice) > 0 {
		if orig, origErr := ParsePrice(raw.OriginalPrice); origErr == nil && orig >= 0 {
			r.OriginalPrice = &orig
		}
	}

	// Default out-of-range optionals to absent instead of rejecting.
	if r.Rating != nil && (*r.Rating < 0 || *r.Rating > 5) {
		r.Rating = nil
	}
	if r.ReviewCount != nil && *r.ReviewCount < 0 {
		r.ReviewCount = nil
	}

	if !r.Valid() {
		return types.ProductRecord{}, fmt.Errorf("product %q: invalid canonical record", id)
	}
	return r, nil
}

// ParsePrice coerces a raw JSON price value into a non-negative float.
// Accepts numbers ("119.5") and currency strings ("$1,299.99", "EUR 89").
func ParsePrice(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("missing price")
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative price %g", n)
		}
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("unparsable price %s", raw)
	}
	return parsePriceString(s)
}

// parsePriceString strips currency symbols, letters, and thousands
// separators and parses the remainder.
func parsePriceString(s string) (float64, error) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-':
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable price %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative price %q", s)
	}
	return n, nil
}
