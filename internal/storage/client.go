package storage

import (
	"crypto/tls"
	"fmt"
	"net/http"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/url-catalog/urlcatalog/internal/config"
	"github.com/url-catalog/urlcatalog/internal/logger"
)

// NewClient creates and verifies an Elasticsearch client.
func NewClient(cfg *config.ElasticsearchConfig, log logger.Interface) (*es.Client, error) {
	if len(cfg.Addresses) > 0 {
		log.Debug("connecting to Elasticsearch", "addresses", cfg.Addresses)
	}

	clientConfig := es.Config{
		Addresses: cfg.Addresses,
		Transport: createTransport(cfg),
	}

	if cfg.APIKey != "" {
		clientConfig.APIKey = cfg.APIKey
	} else if cfg.Username != "" && cfg.Password != "" {
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	client, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := client.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error pinging Elasticsearch: %s", res.String())
	}

	return client, nil
}

// createTransport creates the HTTP transport, optionally skipping TLS
// verification for development environments.
func createTransport(cfg *config.ElasticsearchConfig) *http.Transport {
	transport := &http.Transport{}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{
			//nolint:gosec // InsecureSkipVerify is configurable for development/testing environments
			InsecureSkipVerify: true,
		}
	}
	return transport
}
