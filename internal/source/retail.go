// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/atelier-commerce/stylesearch/internal/httputil"
	"github.com/atelier-commerce/stylesearch/internal/normalize"
	"github.com/atelier-commerce/stylesearch/pkg/types"
)

// retailResponse is the common JSON envelope the retail back-ends return.
type retailResponse struct {
	Products []normalize.RawProduct `json:"products"`
}

// Retail queries one remote retail back-end over HTTP. A circuit breaker
// sits in front of the call so a back-end that is hard down fails fast
// instead of eating its full timeout budget on every query; an open
// breaker surfaces as an ordinary source error outcome.
type Retail struct {
	cfg     types.SourceConfig
	httpCfg types.HTTPConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewRetail builds a retail adapter. A nil client uses http.DefaultClient;
// a nil logger is replaced with a no-op.
func NewRetail(cfg types.SourceConfig, httpCfg types.HTTPConfig, client *http.Client, logger *zap.Logger) *Retail {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retail{
		cfg:     cfg,
		httpCfg: httpCfg,
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: cfg.ID,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		logger: logger.With(zap.String("source", cfg.ID)),
	}
}

// ID returns the stable source identifier.
func (r *Retail) ID() string { return r.cfg.ID }

// Name returns the human-readable source name.
func (r *Retail) Name() string {
	if r.cfg.Name != "" {
		return r.cfg.Name
	}
	return r.cfg.ID
}

// Query calls the retailer's search endpoint and returns canonical
// records. Unparsable products are dropped by the normalizer; records
// the back-end returned outside the requested filters are dropped here.
func (r *Retail) Query(ctx context.Context, q types.SearchQuery) ([]types.ProductRecord, error) {
	params := url.Values{"q": {q.Term}}
	if q.Filters.Category != "" {
		params.Set("category", q.Filters.Category)
	}
	if q.Filters.MinPrice > 0 {
		params.Set("min_price", strconv.FormatFloat(q.Filters.MinPrice, 'f', -1, 64))
	}
	if q.Filters.MaxPrice > 0 {
		params.Set("max_price", strconv.FormatFloat(q.Filters.MaxPrice, 'f', -1, 64))
	}
	if q.Filters.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Filters.Limit))
	}
	reqURL := r.cfg.BaseURL + "?" + params.Encode()

	payload, err := r.breaker.Execute(func() (interface{}, error) {
		return r.fetch(ctx, reqURL)
	})
	if err != nil {
		return nil, err
	}

	raws := payload.(retailResponse).Products
	records := normalize.Records(r.cfg.ID, raws)

	filtered := records[:0]
	for _, rec := range records {
		if q.Filters.Match(rec) {
			filtered = append(filtered, rec)
		}
	}
	r.logger.Debug("retail query done",
		zap.Int("raw", len(raws)),
		zap.Int("kept", len(filtered)))
	return filtered, nil
}

func (r *Retail) fetch(ctx context.Context, reqURL string) (retailResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return retailResponse{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.httpCfg.UserAgent)
	if r.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", r.cfg.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, r.client, req, 0)
	if err != nil {
		return retailResponse{}, fmt.Errorf("%s request: %w", r.cfg.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return retailResponse{}, fmt.Errorf("%s returned HTTP %d", r.cfg.ID, resp.StatusCode)
	}

	var payload retailResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return retailResponse{}, fmt.Errorf("parsing %s response: %w", r.cfg.ID, err)
	}
	return payload, nil
}
