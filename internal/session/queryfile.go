// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/atelier-commerce/stylesearch/pkg/types"
)

// SavedSearch is the on-disk representation of a search and its results.
// A shopper (or a support engineer reproducing a report) can save a search
// to a file and reload it later without re-querying the sources.
type SavedSearch struct {
	Term    string             `yaml:"term"`
	Filters types.Filters      `yaml:"filters"`
	Result  types.SearchResult `yaml:"result"`
	Summary SearchSummary      `yaml:"summary"`
}

// SearchSummary stores result statistics and a timestamp.
type SearchSummary struct {
	Total        int       `yaml:"total"`
	DupsRemoved  int       `yaml:"dups_removed"`
	SourceErrors []string  `yaml:"source_errors,omitempty"`
	Timestamp    time.Time `yaml:"timestamp"`
}

// WriteSavedSearch saves a search and its result to a YAML file.
func WriteSavedSearch(path, term string, f types.Filters, res types.SearchResult) error {
	var errs []string
	for _, e := range res.Errors {
		errs = append(errs, e.SourceID+": "+e.Reason)
	}
	ss := SavedSearch{
		Term:    term,
		Filters: f,
		Result:  res,
		Summary: SearchSummary{
			Total:        res.Total,
			DupsRemoved:  res.DupsRemoved,
			SourceErrors: errs,
			Timestamp:    time.Now(),
		},
	}

	data, err := yaml.Marshal(&ss)
	if err != nil {
		return fmt.Errorf("marshaling saved search: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSavedSearch loads a previously saved search from disk.
func ReadSavedSearch(path string) (*SavedSearch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading saved search: %w", err)
	}
	var ss SavedSearch
	if err := yaml.Unmarshal(data, &ss); err != nil {
		return nil, fmt.Errorf("parsing saved search: %w", err)
	}
	return &ss, nil
}
