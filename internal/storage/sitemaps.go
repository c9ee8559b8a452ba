package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/url-catalog/urlcatalog/internal/domain"
)

// InsertSitemaps bulk-inserts sitemap records keyed by URL with duplicate
// tolerance, mirroring InsertURLs.
func (s *Storage) InsertSitemaps(ctx context.Context, records []domain.SitemapRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	for i := range records {
		meta := map[string]any{
			"create": map[string]any{
				"_index": s.sitemapIndex,
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

	return s.bulkCreate(ctx, "InsertSitemaps", s.sitemapIndex, &buf)
}

// AllSitemaps returns every sitemap record sorted by URL. Sitemap files
// number in the hundreds at most, so one bounded page suffices.
func (s *Storage) AllSitemaps(ctx context.Context) ([]domain.SitemapRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.searchTO)
	defer cancel()

	body, err := marshalJSON(map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
		"sort":  urlSort(),
		"size":  10000,
	})
	if err != nil {
		return nil, err
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.sitemapIndex),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("error executing search: %w", err)
	}
	defer s.closeResponse(res, "AllSitemaps", s.sitemapIndex)

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source domain.SitemapRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&parsed); decodeErr != nil {
		return nil, fmt.Errorf("error decoding search response: %w", decodeErr)
	}

	records := make([]domain.SitemapRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		records = append(records, hit.Source)
	}
	return records, nil
}

// GetSitemap returns one sitemap record or ErrNotFound.
func (s *Storage) GetSitemap(ctx context.Context, url string) (*domain.SitemapRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.searchTO)
	defer cancel()

	res, err := s.client.Get(
		s.sitemapIndex,
		url,
		s.client.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("error getting document: %w", err)
	}
	defer s.closeResponse(res, "GetSitemap", s.sitemapIndex)

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("error getting document: %s", res.String())
	}

	var parsed struct {
		Source domain.SitemapRecord `json:"_source"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&parsed); decodeErr != nil {
		return nil, fmt.Errorf("error decoding document: %w", decodeErr)
	}
	return &parsed.Source, nil
}

// DeleteSitemap removes one sitemap record.
func (s *Storage) DeleteSitemap(ctx context.Context, url string) error {
	return s.deleteDoc(ctx, s.sitemapIndex, url)
}

// ClearAll wipes both collections with delete-by-query so the index mappings
// survive. Destructive; callers confirm intent upstream.
func (s *Storage) ClearAll(ctx context.Context) error {
	for _, index := range []string{s.urlIndex, s.sitemapIndex} {
		if err := s.deleteAll(ctx, index); err != nil {
			return err
		}
	}
	s.logger.Info("cleared all collections",
		"url_index", s.urlIndex,
		"sitemap_index", s.sitemapIndex,
	)
	return nil
}

// deleteAll removes every document from one index.
func (s *Storage) deleteAll(ctx context.Context, index string) error {
	ctx, cancel := context.WithTimeout(ctx, s.bulkTO)
	defer cancel()

	body, err := marshalJSON(map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
	})
	if err != nil {
		return err
	}

	res, err := s.client.DeleteByQuery(
		[]string{index},
		bytes.NewReader(body),
		s.client.DeleteByQuery.WithContext(ctx),
		s.client.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return fmt.Errorf("delete by query failed: %w", err)
	}
	defer s.closeResponse(res, "ClearAll", index)

	if res.IsError() {
		return fmt.Errorf("delete by query error: %s", res.String())
	}
	return nil
}
