package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/url-catalog/urlcatalog/internal/config"
	"github.com/url-catalog/urlcatalog/internal/logger"
)

const (
	// DefaultSearchTimeout bounds read operations.
	DefaultSearchTimeout = 30 * time.Second
	// DefaultBulkTimeout bounds bulk writes; bulk transfer batches can be
	// large, so this runs much longer than a search.
	DefaultBulkTimeout = 5 * time.Minute
)

// Storage implements Store on top of Elasticsearch. Both collections use the
// record URL as the document id, which makes the uniqueness constraint and
// duplicate-tolerant inserts native to the store.
type Storage struct {
	client       *es.Client
	urlIndex     string
	sitemapIndex string
	searchTO     time.Duration
	bulkTO       time.Duration
	logger       logger.Interface
}

// New creates a Storage over the given client.
func New(client *es.Client, cfg *config.ElasticsearchConfig, log logger.Interface) (*Storage, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	searchTO := cfg.RequestTimeout
	if searchTO <= 0 {
		searchTO = DefaultSearchTimeout
	}
	bulkTO := cfg.BulkTimeout
	if bulkTO <= 0 {
		bulkTO = DefaultBulkTimeout
	}

	return &Storage{
		client:       client,
		urlIndex:     cfg.URLIndex,
		sitemapIndex: cfg.SitemapIndex,
		searchTO:     searchTO,
		bulkTO:       bulkTO,
		logger:       log,
	}, nil
}

// Ping verifies the connection to the store.
func (s *Storage) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error pinging storage: %w", err)
	}
	defer s.closeResponse(res, "Ping", "")

	if res.IsError() {
		return fmt.Errorf("error pinging storage: %s", res.String())
	}
	return nil
}

// Close releases resources held by the storage layer.
func (s *Storage) Close() error {
	// The Elasticsearch client holds no resources needing explicit release.
	return nil
}

// closeResponse safely closes a response body and logs close failures.
func (s *Storage) closeResponse(res *esapi.Response, operation, index string) {
	if closeErr := res.Body.Close(); closeErr != nil {
		s.logger.Error("failed to close response body",
			"operation", operation,
			"index", index,
			"error", closeErr,
		)
	}
}

// marshalJSON marshals a query or document body.
func marshalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

// buildURLQuery translates a URLFilter into an Elasticsearch bool query.
// Every read and filter-scoped write goes through this one translation so
// list, pending-text, counting and mark-copied all agree.
func buildURLQuery(f URLFilter) map[string]any {
	var filters []map[string]any
	var mustNot []map[string]any

	switch f.Status {
	case StatusPending:
		filters = append(filters, term("copied", false))
		mustNot = append(mustNot, term("quality_status", StatusRejected))
	case StatusCopied:
		filters = append(filters, term("copied", true))
	case StatusUnchecked:
		filters = append(filters, term("quality_status", StatusUnchecked))
	case StatusRejected:
		filters = append(filters, term("quality_status", StatusRejected))
	case StatusApproved:
		filters = append(filters, term("quality_status", StatusApproved))
	case StatusAll, "":
		// No status predicate.
	}

	if f.Sitemap != "" {
		filters = append(filters, term("parent_sitemap", f.Sitemap))
	}

	if f.Search != "" {
		filters = append(filters, map[string]any{
			"wildcard": map[string]any{
				"url": map[string]any{
					"value":            "*" + escapeWildcard(f.Search) + "*",
					"case_insensitive": true,
				},
			},
		})
	}

	if len(filters) == 0 && len(mustNot) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}

	boolQuery := map[string]any{}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}
	if len(mustNot) > 0 {
		boolQuery["must_not"] = mustNot
	}
	return map[string]any{"bool": boolQuery}
}

// term builds a single term predicate.
func term(field string, value any) map[string]any {
	return map[string]any{"term": map[string]any{field: value}}
}

// escapeWildcard neutralizes wildcard metacharacters in user search input.
func escapeWildcard(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`)
	return r.Replace(s)
}

// urlSort is the deterministic sort shared by listing and the export walk.
func urlSort() []map[string]any {
	return []map[string]any{
		{"url": map[string]any{"order": "asc"}},
	}
}
