// Package common wires the shared dependency graph used by every subcommand.
package common

import (
	"context"
	"fmt"

	"github.com/url-catalog/urlcatalog/internal/catalog"
	"github.com/url-catalog/urlcatalog/internal/config"
	"github.com/url-catalog/urlcatalog/internal/fetcher"
	"github.com/url-catalog/urlcatalog/internal/logger"
	"github.com/url-catalog/urlcatalog/internal/pipeline"
	"github.com/url-catalog/urlcatalog/internal/quality"
	"github.com/url-catalog/urlcatalog/internal/sitemap"
	"github.com/url-catalog/urlcatalog/internal/storage"
	"github.com/url-catalog/urlcatalog/internal/transfer"
)

// Deps is the explicitly constructed dependency graph: the store client is
// opened once at process start and closed at shutdown, never held as an
// implicit global.
type Deps struct {
	Config   *config.Config
	Logger   logger.Interface
	Store    storage.Store
	Pipeline *pipeline.Pipeline
	Catalog  *catalog.Service
	Transfer *transfer.Service
}

// Build loads configuration and constructs the full dependency graph.
func Build(ctx context.Context) (*Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	client, err := storage.NewClient(&cfg.Elasticsearch, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.New(client, &cfg.Elasticsearch, log)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureIndices(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure indices: %w", err)
	}

	fetchClient := fetcher.New(fetcher.Config{
		Timeout:      cfg.Fetcher.Timeout,
		UserAgent:    cfg.Fetcher.UserAgent,
		MaxBodyBytes: cfg.Fetcher.MaxBodyBytes,
	}, log)

	resolver := sitemap.NewResolver(fetchClient, log)

	scanner := quality.NewScanner(fetchClient, quality.Config{
		RatingSelector:  cfg.Scanner.RatingSelector,
		ReviewsSelector: cfg.Scanner.ReviewsSelector,
		MinRating:       cfg.Scanner.MinRating,
		MinReviews:      cfg.Scanner.MinReviews,
	}, log)

	return &Deps{
		Config:   cfg,
		Logger:   log,
		Store:    store,
		Pipeline: pipeline.New(resolver, scanner, store, cfg.Pipeline.BatchSize, log),
		Catalog:  catalog.NewService(store, log),
		Transfer: transfer.NewService(store, log),
	}, nil
}

// Close releases held resources.
func (d *Deps) Close() error {
	return d.Store.Close()
}
