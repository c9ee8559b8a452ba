package storage

import (
	"bytes"
	"context"
	"fmt"
)

// urlMapping defines the urls index: the URL doubles as the document id, and
// every field the catalog filters on is indexed.
const urlMapping = `{
  "mappings": {
    "properties": {
      "url":            { "type": "keyword" },
      "source_domain":  { "type": "keyword" },
      "parent_sitemap": { "type": "keyword" },
      "extracted_at":   { "type": "date" },
      "copied":         { "type": "boolean" },
      "quality_status": { "type": "keyword" },
      "rating":         { "type": "float" },
      "review_count":   { "type": "integer" }
    }
  }
}`

// sitemapMapping defines the sitemaps index.
const sitemapMapping = `{
  "mappings": {
    "properties": {
      "url":           { "type": "keyword" },
      "source_domain": { "type": "keyword" },
      "found_at":      { "type": "date" }
    }
  }
}`

// EnsureIndices creates both indices with their mappings if missing.
func (s *Storage) EnsureIndices(ctx context.Context) error {
	if err := s.ensureIndex(ctx, s.urlIndex, urlMapping); err != nil {
		return err
	}
	return s.ensureIndex(ctx, s.sitemapIndex, sitemapMapping)
}

// ensureIndex creates one index if it does not already exist.
func (s *Storage) ensureIndex(ctx context.Context, index, mapping string) error {
	exists, err := s.indexExists(ctx, index)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	res, err := s.client.Indices.Create(
		index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", index, err)
	}
	defer s.closeResponse(res, "EnsureIndices", index)

	if res.IsError() {
		return fmt.Errorf("error creating index %s: %s", index, res.String())
	}

	s.logger.Info("created index", "index", index)
	return nil
}

// indexExists checks whether an index exists.
func (s *Storage) indexExists(ctx context.Context, index string) (bool, error) {
	res, err := s.client.Indices.Exists(
		[]string{index},
		s.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check index existence: %w", err)
	}
	defer s.closeResponse(res, "IndexExists", index)

	return res.StatusCode == 200, nil
}
