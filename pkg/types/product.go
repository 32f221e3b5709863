// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the stylesearch engine.
package types

// ProductRecord is the engine's canonical, source-agnostic product
// representation. Sources return raw payloads in their own shapes; the
// normalizer maps them into this struct. Records are never mutated after
// creation; scoring and dedup produce derived copies.
type ProductRecord struct {
	// ID is the product identifier, unique within its source.
	ID string `json:"id" yaml:"id"`

	// Title is the product display title.
	Title string `json:"title" yaml:"title"`

	// Category is the product category (e.g. "shoes", "dresses").
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Brand is the product brand or maker.
	Brand string `json:"brand,omitempty" yaml:"brand,omitempty"`

	// Description is free-text marketing copy used for relevance matching.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Price is the current price, currency-agnostic. Always >= 0.
	Price float64 `json:"price" yaml:"price"`

	// OriginalPrice is the pre-discount price, when the source reports one.
	OriginalPrice *float64 `json:"original_price,omitempty" yaml:"original_price,omitempty"`

	// Rating is the average customer rating in [0, 5], when available.
	Rating *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`

	// ReviewCount is the number of customer reviews, when available.
	ReviewCount *int `json:"review_count,omitempty" yaml:"review_count,omitempty"`

	// Availability is the source's stock note (e.g. "in_stock", "2 left").
	Availability string `json:"availability,omitempty" yaml:"availability,omitempty"`

	// Shipping is the source's fulfillment note (e.g. "free 2-day").
	Shipping string `json:"shipping,omitempty" yaml:"shipping,omitempty"`

	// ImageURL references the product image. The engine treats it as opaque.
	ImageURL string `json:"image_url,omitempty" yaml:"image_url,omitempty"`

	// SourceID identifies which adapter produced this record.
	SourceID string `json:"source_id" yaml:"source_id"`

	// Relevance is the query match score computed by the engine, never
	// provided by a source.
	Relevance float64 `json:"relevance" yaml:"relevance"`
}

// Valid reports whether the record satisfies the canonical invariants:
// non-empty identifier and title, non-negative price, and rating (if
// present) within [0, 5].
func (r ProductRecord) Valid() bool {
	if r.ID == "" || r.Title == "" {
		return false
	}
	if r.Price < 0 {
		return false
	}
	if r.Rating != nil && (*r.Rating < 0 || *r.Rating > 5) {
		return false
	}
	return true
}
