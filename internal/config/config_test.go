package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/url-catalog/urlcatalog/internal/config"
)

func TestValidate_RequiresAddresses(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrMissingAddresses)
}

func TestValidate_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Elasticsearch: config.ElasticsearchConfig{
			Addresses: []string{"http://localhost:9200"},
		},
	}

	require.NoError(t, cfg.Validate())

	assert.Equal(t, "catalog_urls", cfg.Elasticsearch.URLIndex)
	assert.Equal(t, "catalog_sitemaps", cfg.Elasticsearch.SitemapIndex)
	assert.Equal(t, 10*time.Second, cfg.Fetcher.Timeout)
	assert.Equal(t, 15, cfg.Pipeline.BatchSize)
	assert.Equal(t, 25, cfg.Pipeline.ScanLimit)
}

func TestValidate_KeepsExplicitValues(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Elasticsearch: config.ElasticsearchConfig{
			Addresses:    []string{"http://localhost:9200"},
			URLIndex:     "custom_urls",
			SitemapIndex: "custom_sitemaps",
		},
		Fetcher:  config.FetcherConfig{Timeout: 3 * time.Second},
		Pipeline: config.PipelineConfig{BatchSize: 8, ScanLimit: 100},
	}

	require.NoError(t, cfg.Validate())

	assert.Equal(t, "custom_urls", cfg.Elasticsearch.URLIndex)
	assert.Equal(t, "custom_sitemaps", cfg.Elasticsearch.SitemapIndex)
	assert.Equal(t, 3*time.Second, cfg.Fetcher.Timeout)
	assert.Equal(t, 8, cfg.Pipeline.BatchSize)
	assert.Equal(t, 100, cfg.Pipeline.ScanLimit)
}
