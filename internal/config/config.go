// Package config loads and validates the application configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/url-catalog/urlcatalog/internal/logger"
)

// Config holds the full application configuration.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Logger        logger.Config       `mapstructure:"logger"`
	Server        ServerConfig        `mapstructure:"server"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Fetcher       FetcherConfig       `mapstructure:"fetcher"`
	Scanner       ScannerConfig       `mapstructure:"scanner"`
	Pipeline      PipelineConfig      `mapstructure:"pipeline"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ElasticsearchConfig holds document store connection settings.
type ElasticsearchConfig struct {
	Addresses          []string      `mapstructure:"addresses"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	APIKey             string        `mapstructure:"api_key"`
	URLIndex           string        `mapstructure:"url_index"`
	SitemapIndex       string        `mapstructure:"sitemap_index"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	BulkTimeout        time.Duration `mapstructure:"bulk_timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// FetcherConfig holds outbound HTTP fetch settings.
type FetcherConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// ScannerConfig holds the quality-scan selectors and thresholds. The
// selectors are page-specific conventions and therefore configuration,
// not pipeline logic.
type ScannerConfig struct {
	RatingSelector  string  `mapstructure:"rating_selector"`
	ReviewsSelector string  `mapstructure:"reviews_selector"`
	MinRating       float64 `mapstructure:"min_rating"`
	MinReviews      int     `mapstructure:"min_reviews"`
}

// PipelineConfig holds import pipeline settings.
type PipelineConfig struct {
	// BatchSize bounds how many candidate fetches are in flight at once.
	BatchSize int `mapstructure:"batch_size"`
	// ScanLimit is the default slice size for batch quality re-scans.
	ScanLimit int `mapstructure:"scan_limit"`
}

// ErrMissingAddresses is returned when no Elasticsearch address is configured.
var ErrMissingAddresses = errors.New("elasticsearch addresses are required")

// Load unmarshals the viper state into a validated Config.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required settings and applies safe fallbacks.
func (c *Config) Validate() error {
	if len(c.Elasticsearch.Addresses) == 0 {
		return ErrMissingAddresses
	}
	if c.Elasticsearch.URLIndex == "" {
		c.Elasticsearch.URLIndex = "catalog_urls"
	}
	if c.Elasticsearch.SitemapIndex == "" {
		c.Elasticsearch.SitemapIndex = "catalog_sitemaps"
	}
	if c.Fetcher.Timeout <= 0 {
		c.Fetcher.Timeout = 10 * time.Second
	}
	if c.Pipeline.BatchSize <= 0 {
		c.Pipeline.BatchSize = 15
	}
	if c.Pipeline.ScanLimit <= 0 {
		c.Pipeline.ScanLimit = 25
	}
	return nil
}
