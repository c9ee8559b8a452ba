// Package testutils provides shared testing utilities across the application.
package testutils

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/url-catalog/urlcatalog/internal/domain"
	"github.com/url-catalog/urlcatalog/internal/storage"
)

// MemStore is an in-memory implementation of storage.Store with the same
// filter semantics as the Elasticsearch-backed store. It is safe for
// concurrent use.
type MemStore struct {
	mu       sync.Mutex
	urls     map[string]domain.URLRecord
	sitemaps map[string]domain.SitemapRecord

	// FailWith, when set, is returned by every operation. Lets tests
	// exercise error paths without a second fake.
	FailWith error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		urls:     make(map[string]domain.URLRecord),
		sitemaps: make(map[string]domain.SitemapRecord),
	}
}

// matches reports whether a record satisfies the filter, mirroring the
// query translation in the Elasticsearch store.
func matches(r domain.URLRecord, f storage.URLFilter) bool {
	switch f.Status {
	case storage.StatusPending:
		if r.Copied || r.QualityStatus == domain.QualityRejected {
			return false
		}
	case storage.StatusCopied:
		if !r.Copied {
			return false
		}
	case storage.StatusUnchecked:
		if r.QualityStatus != domain.QualityUnchecked {
			return false
		}
	case storage.StatusApproved:
		if r.QualityStatus != domain.QualityApproved {
			return false
		}
	case storage.StatusRejected:
		if r.QualityStatus != domain.QualityRejected {
			return false
		}
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(r.URL), strings.ToLower(f.Search)) {
		return false
	}
	if f.Sitemap != "" && r.ParentSitemap != f.Sitemap {
		return false
	}
	return true
}

// sortedMatches returns all matching records in URL order. Caller holds mu.
func (s *MemStore) sortedMatches(f storage.URLFilter) []domain.URLRecord {
	out := make([]domain.URLRecord, 0, len(s.urls))
	for _, r := range s.urls {
		if matches(r, f) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// InsertURLs stores records, silently dropping duplicates.
func (s *MemStore) InsertURLs(_ context.Context, records []domain.URLRecord) (int, error) {
	if s.FailWith != nil {
		return 0, s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	created := 0
	for _, r := range records {
		if _, ok := s.urls[r.URL]; ok {
			continue
		}
		s.urls[r.URL] = r
		created++
	}
	return created, nil
}

// InsertSitemaps stores sitemap records, silently dropping duplicates.
func (s *MemStore) InsertSitemaps(_ context.Context, records []domain.SitemapRecord) (int, error) {
	if s.FailWith != nil {
		return 0, s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	created := 0
	for _, r := range records {
		if _, ok := s.sitemaps[r.URL]; ok {
			continue
		}
		s.sitemaps[r.URL] = r
		created++
	}
	return created, nil
}

// SearchURLs returns one page of matching records in URL order.
func (s *MemStore) SearchURLs(_ context.Context, f storage.URLFilter, page, pageSize int) ([]domain.URLRecord, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.sortedMatches(f)
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

// CountURLs counts matching records.
func (s *MemStore) CountURLs(_ context.Context, f storage.URLFilter) (int64, error) {
	if s.FailWith != nil {
		return 0, s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, r := range s.urls {
		if matches(r, f) {
			n++
		}
	}
	return n, nil
}

// CountSitemaps counts stored sitemap records.
func (s *MemStore) CountSitemaps(_ context.Context) (int64, error) {
	if s.FailWith != nil {
		return 0, s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.sitemaps)), nil
}

// AllSitemaps returns every sitemap record in URL order.
func (s *MemStore) AllSitemaps(_ context.Context) ([]domain.SitemapRecord, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.SitemapRecord, 0, len(s.sitemaps))
	for _, r := range s.sitemaps {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out, nil
}

// GetSitemap returns one sitemap record or storage.ErrNotFound.
func (s *MemStore) GetSitemap(_ context.Context, url string) (*domain.SitemapRecord, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.sitemaps[url]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &r, nil
}

// UncheckedBatch returns up to limit records awaiting a quality scan.
func (s *MemStore) UncheckedBatch(_ context.Context, limit int) ([]domain.URLRecord, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.sortedMatches(storage.URLFilter{Status: storage.StatusUnchecked})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// UpdateQuality applies scan outcomes.
func (s *MemStore) UpdateQuality(_ context.Context, updates []storage.QualityUpdate) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		r, ok := s.urls[u.URL]
		if !ok {
			continue
		}
		r.QualityStatus = u.Status
		r.Rating = u.Rating
		r.ReviewCount = u.Reviews
		s.urls[u.URL] = r
	}
	return nil
}

// MarkCopiedByURLs sets copied=true on the given URLs.
func (s *MemStore) MarkCopiedByURLs(_ context.Context, urls []string) (int64, error) {
	if s.FailWith != nil {
		return 0, s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, u := range urls {
		r, ok := s.urls[u]
		if !ok {
			continue
		}
		r.Copied = true
		s.urls[u] = r
		n++
	}
	return n, nil
}

// MarkCopiedByFilter sets copied=true on everything matching the filter.
func (s *MemStore) MarkCopiedByFilter(_ context.Context, f storage.URLFilter) (int64, error) {
	if s.FailWith != nil {
		return 0, s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for key, r := range s.urls {
		if !matches(r, f) {
			continue
		}
		r.Copied = true
		s.urls[key] = r
		n++
	}
	return n, nil
}

// DeleteURL removes one URL record or returns storage.ErrNotFound.
func (s *MemStore) DeleteURL(_ context.Context, url string) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.urls[url]; !ok {
		return storage.ErrNotFound
	}
	delete(s.urls, url)
	return nil
}

// DeleteSitemap removes one sitemap record or returns storage.ErrNotFound.
func (s *MemStore) DeleteSitemap(_ context.Context, url string) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sitemaps[url]; !ok {
		return storage.ErrNotFound
	}
	delete(s.sitemaps, url)
	return nil
}

// ClearAll wipes both collections.
func (s *MemStore) ClearAll(_ context.Context) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.urls = make(map[string]domain.URLRecord)
	s.sitemaps = make(map[string]domain.SitemapRecord)
	return nil
}

// WalkURLs streams the whole URL collection to fn in batches of pageSize.
func (s *MemStore) WalkURLs(_ context.Context, pageSize int, fn func(batch []domain.URLRecord) error) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.mu.Lock()
	all := s.sortedMatches(storage.URLFilter{})
	s.mu.Unlock()

	for start := 0; start < len(all); start += pageSize {
		end := start + pageSize
		if end > len(all) {
			end = len(all)
		}
		if err := fn(all[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// Ping always succeeds unless FailWith is set.
func (s *MemStore) Ping(_ context.Context) error {
	return s.FailWith
}

// Close is a no-op.
func (s *MemStore) Close() error { return nil }

// URLCount returns the number of stored URL records.
func (s *MemStore) URLCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}

// GetURL returns a stored URL record by key for assertions.
func (s *MemStore) GetURL(url string) (domain.URLRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.urls[url]
	return r, ok
}
