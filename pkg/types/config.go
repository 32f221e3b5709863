package types

import "time"

// HTTPConfig holds shared HTTP settings for adapters that call remote
// retail back-ends.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "stylesearch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SourceConfig describes one remote retail back-end.
type SourceConfig struct {
	// ID is the stable source identifier (e.g. "nordline").
	ID string `json:"id" yaml:"id" mapstructure:"id"`

	// Name is the human-readable source name shown in listings.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// BaseURL is the search endpoint of the retailer API.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey authenticates requests. Usually loaded from .secrets/<id>-api-key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Enabled controls whether the source participates in dispatch.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// SearchConfig holds settings for query dispatch and ranking.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults is the default result limit (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// SourceTimeout bounds each adapter call during dispatch (default 3s).
	SourceTimeout time.Duration `json:"source_timeout" yaml:"source_timeout" mapstructure:"source_timeout"`

	// MinTermLength is the minimum query length accepted before any
	// dispatch happens (default 2).
	MinTermLength int `json:"min_term_length" yaml:"min_term_length" mapstructure:"min_term_length"`
}

// CacheBackend selects the result cache implementation.
type CacheBackend string

const (
	CacheMemory CacheBackend = "memory"
	CacheRedis  CacheBackend = "redis"
)

// CacheConfig holds settings for the result cache.
type CacheConfig struct {
	// Backend selects the cache store: memory (default) or redis.
	Backend CacheBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// TTL is how long a cached result set stays valid (default 5m).
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`

	// RedisAddr is the Redis address when Backend is redis (e.g. "localhost:6379").
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`
}

// CatalogConfig holds settings for the local catalog adapter.
type CatalogConfig struct {
	// Path is the SQLite database file for the local catalog.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// EngineConfig groups all engine configuration.
type EngineConfig struct {
	Search  SearchConfig   `json:"search" yaml:"search" mapstructure:"search"`
	Cache   CacheConfig    `json:"cache" yaml:"cache" mapstructure:"cache"`
	Catalog CatalogConfig  `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Sources []SourceConfig `json:"sources" yaml:"sources" mapstructure:"sources"`
}
