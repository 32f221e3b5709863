// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/atelier-commerce/stylesearch/pkg/types"
)

// FormatTable writes results as a human-readable table to w.
func FormatTable(res types.SearchResult, w io.Writer) {
	if res.Total == 0 {
		fmt.Fprintln(w, "No results found.")
		if len(res.Suggestions) > 0 {
			fmt.Fprintf(w, "Try: %s\n", strings.Join(res.Suggestions, ", "))
		}
		printErrors(res, w)
		return
	}

	fmt.Fprintf(w, "%-4s  %-45s  %-12s  %-9s  %-6s  %-6s  %s\n",
		"Rank", "Title", "Brand", "Price", "Rating", "Score", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, r := range res.Records {
		title := r.Title
		if len(title) > 45 {
			title = title[:42] + "..."
		}
		rating := "-"
		if r.Rating != nil {
			rating = fmt.Sprintf("%.1f", *r.Rating)
		}
		fmt.Fprintf(w, "%-4d  %-45s  %-12s  %-9.2f  %-6s  %-6.0f  %s\n",
			i+1, title, truncate(r.Brand, 12), r.Price, rating, r.Relevance, r.SourceID)
	}

	fmt.Fprintf(w, "\n%d results in %dms from %s", res.Total, res.ElapsedMS, strings.Join(res.Sources, ", "))
	if res.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", res.DupsRemoved)
	}
	if res.Cached {
		fmt.Fprint(w, " [cached]")
	}
	fmt.Fprintln(w)
	printErrors(res, w)
}

// FormatJSON writes the full result envelope as indented JSON to w.
func FormatJSON(res types.SearchResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func printErrors(res types.SearchResult, w io.Writer) {
	for _, e := range res.Errors {
		fmt.Fprintf(w, "warning: source %s failed: %s\n", e.SourceID, e.Reason)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
