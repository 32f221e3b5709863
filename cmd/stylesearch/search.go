// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/atelier-commerce/stylesearch/internal/cache"
	"github.com/atelier-commerce/stylesearch/internal/catalog"
	"github.com/atelier-commerce/stylesearch/internal/dispatch"
	"github.com/atelier-commerce/stylesearch/internal/logging"
	"github.com/atelier-commerce/stylesearch/internal/metrics"
	"github.com/atelier-commerce/stylesearch/internal/rank"
	"github.com/atelier-commerce/stylesearch/internal/session"
	"github.com/atelier-commerce/stylesearch/internal/source"
	"github.com/atelier-commerce/stylesearch/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Run a federated product search",
	Long: `Search queries the local catalog and every enabled retail back-end in
parallel, merges the responses, removes duplicate listings, and prints a
ranked result table. Sources that fail or time out are reported as
warnings; the remaining sources still produce a result.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	term, _ := cmd.Flags().GetString("query")
	if term == "" && len(args) > 0 {
		term = args[0]
	}
	if term == "" {
		return fmt.Errorf("search term required: pass it as an argument or with --query")
	}

	sortBy, _ := cmd.Flags().GetString("sort")
	if sortBy != "" && !types.ValidSort(types.SortStrategy(sortBy)) {
		return fmt.Errorf("unknown sort strategy %q: use relevance, price_low, price_high, rating, or reviews", sortBy)
	}

	minPrice, _ := cmd.Flags().GetFloat64("min-price")
	maxPrice, _ := cmd.Flags().GetFloat64("max-price")
	category, _ := cmd.Flags().GetString("category")
	limit, _ := cmd.Flags().GetInt("limit")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	savePath, _ := cmd.Flags().GetString("save")

	cfg, err := engineConfig()
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	filters := types.Filters{
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Category: category,
		Limit:    limit,
		Sort:     types.SortStrategy(sortBy),
	}
	res, err := eng.Controller.Search(context.Background(), term, session.Options{
		Filters: filters,
		Bypass:  noCache,
	})
	if err != nil {
		return err
	}

	if savePath != "" {
		if err := session.WriteSavedSearch(savePath, term, filters, res); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Saved search to", savePath)
	}

	if jsonOutput {
		return session.FormatJSON(res, os.Stdout)
	}
	session.FormatTable(res, os.Stdout)
	return nil
}

// engine bundles everything a search needs, so subcommands can build and
// tear it down in one place.
type engine struct {
	Controller *session.Controller
	Catalog    *catalog.Store
	Registry   *source.Registry

	resultCache cache.Cache
}

func newEngine(cfg types.EngineConfig) (*engine, error) {
	env, _ := rootCmd.PersistentFlags().GetString("environment")
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	logger, err := logging.New(logging.Config{Environment: env, Level: level})
	if err != nil {
		return nil, err
	}

	store, err := catalog.Open(cfg.Catalog.Path, logger)
	if err != nil {
		return nil, err
	}

	// The local catalog registers first: on relevance ties the stable sort
	// keeps its listings ahead of remote ones.
	reg := source.NewRegistry()
	reg.Register(store, true)

	client := &http.Client{Timeout: cfg.Search.Timeout}
	for _, sc := range cfg.Sources {
		reg.Register(source.NewRetail(sc, cfg.Search.HTTPConfig, client, logger), sc.Enabled)
	}

	var results cache.Cache
	switch cfg.Cache.Backend {
	case types.CacheRedis:
		results = cache.NewRedis(cfg.Cache.RedisAddr, "", cfg.Cache.TTL, logger)
	default:
		results = cache.NewMemory(cfg.Cache.TTL, nil)
	}

	merger := &rank.Merger{
		Limit: cfg.Search.MaxResults,
		Suggest: func(q types.SearchQuery) []string {
			cats, err := store.Categories(context.Background())
			if err != nil {
				logger.Warn("loading catalog categories for suggestions failed")
				cats = nil
			}
			return rank.Suggestions(q, cats)
		},
	}

	ctrl := session.New(reg,
		dispatch.New(cfg.Search.SourceTimeout, logger),
		merger,
		results,
		session.Config{CacheTTL: cfg.Cache.TTL, MinTermLength: cfg.Search.MinTermLength},
		metrics.New(prometheus.DefaultRegisterer),
		logger)

	return &engine{Controller: ctrl, Catalog: store, Registry: reg, resultCache: results}, nil
}

func (e *engine) Close() {
	if c, ok := e.resultCache.(*cache.Redis); ok {
		c.Close()
	}
	e.Catalog.Close()
}

func init() {
	searchCmd.Flags().String("query", "", "search term (alternative to the positional argument)")
	searchCmd.Flags().String("category", "", "filter by product category")
	searchCmd.Flags().Float64("min-price", 0, "minimum price (0 = no bound)")
	searchCmd.Flags().Float64("max-price", 0, "maximum price (0 = no bound)")
	searchCmd.Flags().String("sort", "", "sort strategy: relevance, price_low, price_high, rating, reviews")
	searchCmd.Flags().Int("limit", 0, "maximum results (0 = use configured default)")
	searchCmd.Flags().Bool("no-cache", false, "skip the result cache and query sources directly")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("save", "", "save the search and its results to a YAML file")

	rootCmd.AddCommand(searchCmd)
}
