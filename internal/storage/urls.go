package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/url-catalog/urlcatalog/internal/domain"
)

// bulkResponse is the subset of the bulk API response needed for
// duplicate-tolerant accounting.
type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// searchResponse decodes URL search hits.
type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string           `json:"_id"`
			Source domain.URLRecord `json:"_source"`
			Sort   []any            `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

// InsertURLs bulk-inserts URL records using create actions keyed by URL.
// A version-conflict (409) per item means the URL already exists and is
// silently dropped; the batch itself never aborts on duplicates.
func (s *Storage) InsertURLs(ctx context.Context, records []domain.URLRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	for i := range records {
		meta := map[string]any{
			"create": map[string]any{
				"_index": s.urlIndex,
				"_id":    records[i].URL,
			},
		}
		if err := json.NewEncoder(&buf).Encode(meta); err != nil {
			return 0, fmt.Errorf("failed to encode bulk meta: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(records[i]); err != nil {
			return 0, fmt.Errorf("failed to encode record: %w", err)
		}
	}

	return s.bulkCreate(ctx, "InsertURLs", s.urlIndex, &buf)
}

// bulkCreate executes a bulk body of create actions and counts the documents
// actually created.
func (s *Storage) bulkCreate(ctx context.Context, operation, index string, body *bytes.Buffer) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.bulkTO)
	defer cancel()

	res, err := s.client.Bulk(
		bytes.NewReader(body.Bytes()),
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk request failed: %w", err)
	}
	defer s.closeResponse(res, operation, index)

	if res.IsError() {
		return 0, fmt.Errorf("bulk insert error: %s", res.String())
	}

	var parsed bulkResponse
	if decodeErr := json.NewDecoder(res.Body).Decode(&parsed); decodeErr != nil {
		return 0, fmt.Errorf("error decoding bulk response: %w", decodeErr)
	}

	created := 0
	duplicates := 0
	for _, item := range parsed.Items {
		action, ok := item["create"]
		if !ok {
			continue
		}
		switch action.Status {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			duplicates++
		default:
			if action.Error != nil {
				s.logger.Warn("bulk item failed",
					"operation", operation,
					"status", action.Status,
					"type", action.Error.Type,
					"reason", action.Error.Reason,
				)
			}
		}
	}

	s.logger.Debug("bulk insert complete",
		"operation", operation,
		"index", index,
		"created", created,
		"duplicates", duplicates,
	)
	return created, nil
}

// SearchURLs returns one page of records matching the filter, sorted by URL.
func (s *Storage) SearchURLs(ctx context.Context, f URLFilter, page, pageSize int) ([]domain.URLRecord, error) {
	if page < 1 {
		page = 1
	}

	query := map[string]any{
		"query": buildURLQuery(f),
		"sort":  urlSort(),
		"from":  (page - 1) * pageSize,
		"size":  pageSize,
	}

	parsed, err := s.searchURLIndex(ctx, query)
	if err != nil {
		return nil, err
	}

	records := make([]domain.URLRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		records = append(records, hit.Source)
	}
	return records, nil
}

// searchURLIndex runs one search request against the urls index.
func (s *Storage) searchURLIndex(ctx context.Context, query map[string]any) (*searchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.searchTO)
	defer cancel()

	body, err := marshalJSON(query)
	if err != nil {
		return nil, err
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.urlIndex),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("error executing search: %w", err)
	}
	defer s.closeResponse(res, "SearchURLs", s.urlIndex)

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var parsed searchResponse
	if decodeErr := json.NewDecoder(res.Body).Decode(&parsed); decodeErr != nil {
		return nil, fmt.Errorf("error decoding search response: %w", decodeErr)
	}
	return &parsed, nil
}

// CountURLs counts records matching the filter.
func (s *Storage) CountURLs(ctx context.Context, f URLFilter) (int64, error) {
	return s.count(ctx, s.urlIndex, buildURLQuery(f))
}

// CountSitemaps counts stored sitemap records.
func (s *Storage) CountSitemaps(ctx context.Context) (int64, error) {
	return s.count(ctx, s.sitemapIndex, map[string]any{"match_all": map[string]any{}})
}

// count executes a count request against one index.
func (s *Storage) count(ctx context.Context, index string, query map[string]any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.searchTO)
	defer cancel()

	body, err := marshalJSON(map[string]any{"query": query})
	if err != nil {
		return 0, err
	}

	res, err := s.client.Count(
		s.client.Count.WithContext(ctx),
		s.client.Count.WithIndex(index),
		s.client.Count.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return 0, fmt.Errorf("error executing count: %w", err)
	}
	defer s.closeResponse(res, "Count", index)

	if res.IsError() {
		return 0, fmt.Errorf("count error: %s", res.String())
	}

	var result struct {
		Count int64 `json:"count"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&result); decodeErr != nil {
		return 0, fmt.Errorf("error decoding count response: %w", decodeErr)
	}
	return result.Count, nil
}

// UncheckedBatch returns up to limit records awaiting a quality scan, in URL
// order so repeated calls drain the backlog deterministically.
func (s *Storage) UncheckedBatch(ctx context.Context, limit int) ([]domain.URLRecord, error) {
	return s.SearchURLs(ctx, URLFilter{Status: StatusUnchecked}, 1, limit)
}

// UpdateQuality applies scan outcomes in one bulk partial update.
func (s *Storage) UpdateQuality(ctx context.Context, updates []QualityUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, u := range updates {
		meta := map[string]any{
			"update": map[string]any{
				"_index": s.urlIndex,
				"_id":    u.URL,
			},
		}
		doc := map[string]any{
			"doc": map[string]any{
				"quality_status": u.Status,
				"rating":         u.Rating,
				"review_count":   u.Reviews,
			},
		}
		if err := json.NewEncoder(&buf).Encode(meta); err != nil {
			return fmt.Errorf("failed to encode bulk meta: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(doc); err != nil {
			return fmt.Errorf("failed to encode update doc: %w", err)
		}
	}

	_, err := s.bulkUpdate(ctx, "UpdateQuality", &buf)
	return err
}

// MarkCopiedByURLs sets copied=true on the given URLs via bulk update.
// Missing documents are skipped, not errors, and are excluded from the
// returned count.
func (s *Storage) MarkCopiedByURLs(ctx context.Context, urls []string) (int64, error) {
	if len(urls) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	for _, u := range urls {
		meta := map[string]any{
			"update": map[string]any{
				"_index": s.urlIndex,
				"_id":    u,
			},
		}
		doc := map[string]any{"doc": map[string]any{"copied": true}}
		if err := json.NewEncoder(&buf).Encode(meta); err != nil {
			return 0, fmt.Errorf("failed to encode bulk meta: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(doc); err != nil {
			return 0, fmt.Errorf("failed to encode update doc: %w", err)
		}
	}

	return s.bulkUpdate(ctx, "MarkCopiedByURLs", &buf)
}

// bulkUpdate executes a bulk body of update actions and returns how many
// documents were actually updated. Per-item failures (404s included) are
// logged and skipped; the batch never aborts on them.
func (s *Storage) bulkUpdate(ctx context.Context, operation string, body *bytes.Buffer) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.bulkTO)
	defer cancel()

	res, err := s.client.Bulk(
		bytes.NewReader(body.Bytes()),
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk update failed: %w", err)
	}
	defer s.closeResponse(res, operation, s.urlIndex)

	if res.IsError() {
		return 0, fmt.Errorf("bulk update error: %s", res.String())
	}

	var parsed bulkResponse
	if decodeErr := json.NewDecoder(res.Body).Decode(&parsed); decodeErr != nil {
		return 0, fmt.Errorf("error decoding bulk response: %w", decodeErr)
	}

	if parsed.Errors {
		for _, item := range parsed.Items {
			action, ok := item["update"]
			if !ok || action.Error == nil {
				continue
			}
			s.logger.Warn("bulk update item failed",
				"operation", operation,
				"status", action.Status,
				"reason", action.Error.Reason,
			)
		}
	}
	return countUpdated(parsed), nil
}

// countUpdated tallies the update items that succeeded in a bulk response.
func countUpdated(parsed bulkResponse) int64 {
	var updated int64
	for _, item := range parsed.Items {
		action, ok := item["update"]
		if !ok {
			continue
		}
		if action.Status >= http.StatusOK && action.Status < http.StatusMultipleChoices {
			updated++
		}
	}
	return updated
}

// MarkCopiedByFilter sets copied=true on every record matching the filter,
// using the same query translation as listing and counting.
func (s *Storage) MarkCopiedByFilter(ctx context.Context, f URLFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.bulkTO)
	defer cancel()

	body, err := marshalJSON(map[string]any{
		"query": buildURLQuery(f),
		"script": map[string]any{
			"source": "ctx._source.copied = true",
			"lang":   "painless",
		},
	})
	if err != nil {
		return 0, err
	}

	res, err := s.client.UpdateByQuery(
		[]string{s.urlIndex},
		s.client.UpdateByQuery.WithContext(ctx),
		s.client.UpdateByQuery.WithBody(bytes.NewReader(body)),
		s.client.UpdateByQuery.WithRefresh(true),
	)
	if err != nil {
		return 0, fmt.Errorf("update by query failed: %w", err)
	}
	defer s.closeResponse(res, "MarkCopiedByFilter", s.urlIndex)

	if res.IsError() {
		return 0, fmt.Errorf("update by query error: %s", res.String())
	}

	var result struct {
		Updated int64 `json:"updated"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&result); decodeErr != nil {
		return 0, fmt.Errorf("error decoding update response: %w", decodeErr)
	}
	return result.Updated, nil
}

// DeleteURL removes one URL record.
func (s *Storage) DeleteURL(ctx context.Context, url string) error {
	return s.deleteDoc(ctx, s.urlIndex, url)
}

// deleteDoc deletes a single document by id, mapping 404 to ErrNotFound.
func (s *Storage) deleteDoc(ctx context.Context, index, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.searchTO)
	defer cancel()

	res, err := s.client.Delete(
		index,
		id,
		s.client.Delete.WithContext(ctx),
		s.client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("error deleting document: %w", err)
	}
	defer s.closeResponse(res, "DeleteDocument", index)

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.IsError() {
		return fmt.Errorf("error deleting document: %s", res.String())
	}

	s.logger.Info("deleted document", "index", index, "doc_id", id)
	return nil
}

// WalkURLs streams the whole collection in URL order using search_after, so
// memory use stays constant regardless of corpus size.
func (s *Storage) WalkURLs(ctx context.Context, pageSize int, fn func(batch []domain.URLRecord) error) error {
	if pageSize <= 0 {
		pageSize = 500
	}

	var searchAfter []any
	for {
		query := map[string]any{
			"query": map[string]any{"match_all": map[string]any{}},
			"sort":  urlSort(),
			"size":  pageSize,
		}
		if searchAfter != nil {
			query["search_after"] = searchAfter
		}

		parsed, err := s.searchURLIndex(ctx, query)
		if err != nil {
			return err
		}
		if len(parsed.Hits.Hits) == 0 {
			return nil
		}

		batch := make([]domain.URLRecord, 0, len(parsed.Hits.Hits))
		for _, hit := range parsed.Hits.Hits {
			batch = append(batch, hit.Source)
		}
		if err := fn(batch); err != nil {
			return err
		}

		searchAfter = parsed.Hits.Hits[len(parsed.Hits.Hits)-1].Sort
		if len(parsed.Hits.Hits) < pageSize {
			return nil
		}
	}
}
