// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atelier-commerce/stylesearch/pkg/types"
)

const retailPayload = `{
	"products": [
		{"id": "n1", "title": "Block Heeled Sandals", "category": "shoes", "brand": "Nordline",
		 "price": "$120.00", "rating": 4.4, "review_count": 210},
		{"id": "n2", "title": "Strappy Sandals", "category": "shoes", "price": 45.5},
		{"id": "n3", "title": "Broken Price", "price": "n/a"}
	]
}`

func newTestRetail(ts *httptest.Server) *Retail {
	return NewRetail(types.SourceConfig{
		ID:      "nordline",
		Name:    "Nordline",
		BaseURL: ts.URL,
		APIKey:  "rk_test",
		Enabled: true,
	}, types.HTTPConfig{UserAgent: "stylesearch-test/0.1"}, ts.Client(), nil)
}

func TestRetailQuery(t *testing.T) {
	var gotQuery, gotKey, gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.Header.Get("X-API-Key")
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, retailPayload)
	}))
	defer ts.Close()

	adapter := newTestRetail(ts)
	q := types.NewSearchQuery("Sandals ", types.Filters{})

	records, err := adapter.Query(context.Background(), q)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if gotQuery != "sandals" {
		t.Errorf("q param = %q, want normalized %q", gotQuery, "sandals")
	}
	if gotKey != "rk_test" {
		t.Errorf("X-API-Key = %q, want rk_test", gotKey)
	}
	if gotUA != "stylesearch-test/0.1" {
		t.Errorf("User-Agent = %q", gotUA)
	}

	// The unparsable-price product is dropped by the normalizer.
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].ID != "n1" || records[0].Price != 120 || records[0].SourceID != "nordline" {
		t.Errorf("records[0] = %+v", records[0])
	}
}

func TestRetailQueryAppliesFilters(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, retailPayload)
	}))
	defer ts.Close()

	adapter := newTestRetail(ts)
	q := types.NewSearchQuery("sandals", types.Filters{MinPrice: 100})

	records, err := adapter.Query(context.Background(), q)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 1 || records[0].ID != "n1" {
		t.Errorf("records = %+v, want only n1 above the price floor", records)
	}
}

func TestRetailQueryHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	adapter := newTestRetail(ts)
	_, err := adapter.Query(context.Background(), types.NewSearchQuery("sandals", types.Filters{}))
	if err == nil {
		t.Fatal("Query = nil error, want HTTP 503 failure")
	}
}

func TestRetailBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	adapter := newTestRetail(ts)
	q := types.NewSearchQuery("sandals", types.Filters{})

	for i := 0; i < 7; i++ {
		if _, err := adapter.Query(context.Background(), q); err == nil {
			t.Fatalf("call %d succeeded against a failing back-end", i)
		}
	}

	// After five consecutive failures the breaker opens and stops
	// reaching the back-end.
	if calls >= 7 {
		t.Errorf("back-end saw %d calls, want breaker to cut over after 5", calls)
	}
}
