// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"errors"
	"reflect"
	"testing"

	"github.com/atelier-commerce/stylesearch/internal/dispatch"
	"github.com/atelier-commerce/stylesearch/pkg/types"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func sandalRecord(id, title, sourceID string, price float64) types.ProductRecord {
	return types.ProductRecord{
		ID: id, Title: title, Category: "shoes", SourceID: sourceID, Price: price,
	}
}

func testOutcomes() []dispatch.Outcome {
	return []dispatch.Outcome{
		{SourceID: "local", Records: []types.ProductRecord{
			sandalRecord("l1", "Block Heeled Sandals", "local", 120),
			sandalRecord("l2", "Espadrille Sandals", "local", 60),
		}},
		{SourceID: "retailerX", Records: []types.ProductRecord{
			sandalRecord("r1", "block-heeled sandals!!", "retailerX", 110),
			sandalRecord("r2", "Gladiator Sandals", "retailerX", 95),
		}},
	}
}

func TestMergeDedupLocalWins(t *testing.T) {
	m := &Merger{}
	q := types.NewSearchQuery("sandals", types.Filters{})

	res := m.Merge(q, testOutcomes())

	if res.DupsRemoved != 1 {
		t.Errorf("DupsRemoved = %d, want 1", res.DupsRemoved)
	}
	if res.Total != 3 {
		t.Fatalf("Total = %d, want 3", res.Total)
	}
	for _, r := range res.Records {
		if r.Title == "block-heeled sandals!!" {
			t.Errorf("remote duplicate survived dedup: %+v", r)
		}
	}
	// The surviving duplicate is the local record at its local price.
	found := false
	for _, r := range res.Records {
		if r.ID == "l1" && r.SourceID == "local" && r.Price == 120 {
			found = true
		}
	}
	if !found {
		t.Errorf("local record l1 missing from %+v", res.Records)
	}
	if res.Partial {
		t.Error("Partial = true for a clean aggregation")
	}
}

func TestMergeIdempotent(t *testing.T) {
	m := &Merger{}
	q := types.NewSearchQuery("sandals", types.Filters{})

	first := m.Merge(q, testOutcomes())
	second := m.Merge(q, testOutcomes())
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Merge is not idempotent:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}

func TestMergeIsolatesFailedSource(t *testing.T) {
	m := &Merger{}
	q := types.NewSearchQuery("sandals", types.Filters{})

	outcomes := append(testOutcomes(), dispatch.Outcome{
		SourceID: "velora", Err: errors.New("HTTP 503"),
	})

	res := m.Merge(q, outcomes)
	if res.Total != 3 {
		t.Errorf("Total = %d, want records from the two healthy sources", res.Total)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("len(Errors) = %d, want 1", len(res.Errors))
	}
	if res.Errors[0].SourceID != "velora" || res.Errors[0].Reason != "HTTP 503" {
		t.Errorf("Errors[0] = %+v", res.Errors[0])
	}
	if !res.Partial {
		t.Error("Partial = false, want true when a source failed")
	}
}

func TestMergeTimeoutReason(t *testing.T) {
	m := &Merger{}
	q := types.NewSearchQuery("sandals", types.Filters{})

	res := m.Merge(q, []dispatch.Outcome{{SourceID: "velora", Err: dispatch.ErrTimeout}})
	if len(res.Errors) != 1 || res.Errors[0].Reason != "timeout" {
		t.Errorf("Errors = %+v, want one timeout entry", res.Errors)
	}
}

func TestMergeDropsZeroScoreRecords(t *testing.T) {
	m := &Merger{}
	q := types.NewSearchQuery("sandals", types.Filters{})

	outcomes := []dispatch.Outcome{{SourceID: "local", Records: []types.ProductRecord{
		sandalRecord("l1", "Block Heeled Sandals", "local", 120),
		{ID: "l9", Title: "Wool Peacoat", Category: "outerwear", SourceID: "local", Price: 240},
	}}}

	res := m.Merge(q, outcomes)
	if res.Total != 1 || res.Records[0].ID != "l1" {
		t.Errorf("Records = %+v, want only the matching sandal", res.Records)
	}
	if res.Records[0].Relevance <= 0 {
		t.Errorf("Relevance = %g, want > 0", res.Records[0].Relevance)
	}
}

func TestMergeSortStrategies(t *testing.T) {
	records := []types.ProductRecord{
		{ID: "a", Title: "Sandal A", SourceID: "local", Price: 120, Rating: fptr(3.5), ReviewCount: iptr(10)},
		{ID: "b", Title: "Sandal B", SourceID: "local", Price: 60, Rating: fptr(4.8), ReviewCount: iptr(500)},
		{ID: "c", Title: "Sandal C", SourceID: "local", Price: 95},
		{ID: "d", Title: "Sandal D", SourceID: "local", Price: 80, Rating: fptr(4.1)},
	}
	outcomes := []dispatch.Outcome{{SourceID: "local", Records: records}}
	m := &Merger{}

	tests := []struct {
		sort types.SortStrategy
		want []string
	}{
		{types.SortPriceLow, []string{"b", "d", "c", "a"}},
		{types.SortPriceHigh, []string{"a", "c", "d", "b"}},
		{types.SortRating, []string{"b", "d", "a", "c"}},   // missing rating last
		{types.SortReviews, []string{"b", "a", "c", "d"}},  // missing reviews keep order, last
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			q := types.NewSearchQuery("sandal", types.Filters{Sort: tt.sort})
			res := m.Merge(q, outcomes)
			var got []string
			for _, r := range res.Records {
				got = append(got, r.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("sort %s = %v, want %v", tt.sort, got, tt.want)
			}
		})
	}
}

func TestMergePriceLowAdjacentPairs(t *testing.T) {
	m := &Merger{}
	q := types.NewSearchQuery("sandals", types.Filters{Sort: types.SortPriceLow})
	res := m.Merge(q, testOutcomes())

	for i := 1; i < len(res.Records); i++ {
		if res.Records[i-1].Price > res.Records[i].Price {
			t.Errorf("records[%d].Price %g > records[%d].Price %g",
				i-1, res.Records[i-1].Price, i, res.Records[i].Price)
		}
	}
}

func TestMergeRelevanceTieLocalFirst(t *testing.T) {
	// Identical titles per source would dedup; use distinct titles with
	// identical scores so the tie-break is observable.
	outcomes := []dispatch.Outcome{
		{SourceID: "local", Records: []types.ProductRecord{
			sandalRecord("l1", "Leather Sandals One", "local", 100),
		}},
		{SourceID: "retailerX", Records: []types.ProductRecord{
			sandalRecord("r1", "Leather Sandals Two", "retailerX", 90),
		}},
	}
	m := &Merger{}
	q := types.NewSearchQuery("sandals", types.Filters{})

	res := m.Merge(q, outcomes)
	if len(res.Records) != 2 || res.Records[0].SourceID != "local" {
		t.Errorf("tie-break order = %+v, want local first", res.Records)
	}
	if !reflect.DeepEqual(res.Sources, []string{"local", "retailerX"}) {
		t.Errorf("Sources = %v, want dispatch order", res.Sources)
	}
}

func TestMergeTruncatesToLimit(t *testing.T) {
	var records []types.ProductRecord
	for i := 0; i < 30; i++ {
		records = append(records, sandalRecord(
			string(rune('a'+i)), "Sandal Style "+string(rune('a'+i)), "local", float64(10+i)))
	}
	outcomes := []dispatch.Outcome{{SourceID: "local", Records: records}}
	m := &Merger{}

	res := m.Merge(types.NewSearchQuery("sandal", types.Filters{}), outcomes)
	if res.Total != DefaultLimit {
		t.Errorf("Total = %d, want default limit %d", res.Total, DefaultLimit)
	}

	res = m.Merge(types.NewSearchQuery("sandal", types.Filters{Limit: 5}), outcomes)
	if res.Total != 5 {
		t.Errorf("Total = %d, want 5", res.Total)
	}
}

func TestMergeTotalFailureSuggests(t *testing.T) {
	m := &Merger{Suggest: func(q types.SearchQuery) []string {
		return []string{"sneakers", "dresses"}
	}}
	q := types.NewSearchQuery("sandals", types.Filters{})

	outcomes := []dispatch.Outcome{
		{SourceID: "local", Err: errors.New("database locked")},
		{SourceID: "retailerX", Err: dispatch.ErrTimeout},
	}

	res := m.Merge(q, outcomes)
	if res.Total != 0 {
		t.Fatalf("Total = %d, want 0", res.Total)
	}
	if len(res.Errors) != 2 {
		t.Errorf("len(Errors) = %d, want 2", len(res.Errors))
	}
	if len(res.Suggestions) == 0 {
		t.Error("Suggestions empty, want fallback terms on an empty result")
	}
	if !res.Partial {
		t.Error("Partial = false, want true")
	}
}
