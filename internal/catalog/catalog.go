// Package catalog is the read path over the stored URL and sitemap
// collections: paginated listing, pending-as-text, copy marking, stats.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/url-catalog/urlcatalog/internal/domain"
	"github.com/url-catalog/urlcatalog/internal/logger"
	"github.com/url-catalog/urlcatalog/internal/storage"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Filters narrows URL listings. Status accepts
// all|pending|copied|unchecked|rejected; anything else falls back to all.
type Filters struct {
	Status  string `json:"status" form:"status"`
	Search  string `json:"search" form:"search"`
	Sitemap string `json:"sitemap" form:"sitemap"`
}

// CopySelector is the tagged variant consumed by MarkCopied: either an
// explicit URL list, or "all pending matching these filters".
type CopySelector struct {
	URLs       []string `json:"urls"`
	AllPending bool     `json:"all_pending"`
	Filters    Filters  `json:"filters"`
}

// Pagination describes one result page.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// ListResult is one page of records plus filter-independent global stats,
// so summary counters never flicker as the active filter changes.
type ListResult struct {
	Records    []domain.URLRecord `json:"records"`
	Pagination Pagination         `json:"pagination"`
	Stats      domain.GlobalStats `json:"stats"`
}

// TextResult is a newline-joined URL list for the copy-batch workflow.
type TextResult struct {
	Text  string   `json:"text"`
	Count int      `json:"count"`
	URLs  []string `json:"urls"`
}

// Service implements the catalog read path and the copy mutation.
type Service struct {
	store storage.Store
	log   logger.Interface
}

// NewService creates a catalog service.
func NewService(store storage.Store, log logger.Interface) *Service {
	return &Service{store: store, log: log}
}

// toFilter translates transport filters into the store's filter type. The
// same translation backs List, PendingText and MarkCopied, which keeps what
// a caller sees consistent with what a caller copies.
func toFilter(f Filters) storage.URLFilter {
	status := strings.ToLower(strings.TrimSpace(f.Status))
	switch status {
	case storage.StatusPending, storage.StatusCopied, storage.StatusUnchecked,
		storage.StatusRejected, storage.StatusApproved:
	default:
		status = storage.StatusAll
	}
	return storage.URLFilter{
		Status:  status,
		Search:  strings.TrimSpace(f.Search),
		Sitemap: strings.TrimSpace(f.Sitemap),
	}
}

// pendingFilter forces the pending predicate while keeping the caller's
// search and sitemap scoping.
func pendingFilter(f Filters) storage.URLFilter {
	sf := toFilter(f)
	sf.Status = storage.StatusPending
	return sf
}

// List returns one page of records matching the filters, in URL order.
func (s *Service) List(ctx context.Context, f Filters, page, pageSize int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	filter := toFilter(f)

	records, err := s.store.SearchURLs(ctx, filter, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list URLs: %w", err)
	}

	total, err := s.store.CountURLs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count URLs: %w", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &ListResult{
		Records: records,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
		Stats: stats,
	}, nil
}

// Stats aggregates corpus-wide counters independent of any active filter.
func (s *Service) Stats(ctx context.Context) (domain.GlobalStats, error) {
	var stats domain.GlobalStats

	counts := []struct {
		status string
		dest   *int64
	}{
		{storage.StatusAll, &stats.Total},
		{storage.StatusPending, &stats.Pending},
		{storage.StatusCopied, &stats.Copied},
		{storage.StatusUnchecked, &stats.Unchecked},
		{storage.StatusApproved, &stats.Approved},
		{storage.StatusRejected, &stats.Rejected},
	}
	for _, c := range counts {
		n, err := s.store.CountURLs(ctx, storage.URLFilter{Status: c.status})
		if err != nil {
			return stats, fmt.Errorf("failed to compute stats: %w", err)
		}
		*c.dest = n
	}

	sitemaps, err := s.store.CountSitemaps(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to count sitemaps: %w", err)
	}
	stats.Sitemaps = sitemaps

	return stats, nil
}

// PendingText returns up to limit pending URLs, newline-joined, applying the
// identical filter semantics as List restricted to pending.
func (s *Service) PendingText(ctx context.Context, f Filters, limit int) (*TextResult, error) {
	if limit <= 0 {
		limit = maxPageSize
	}

	records, err := s.store.SearchURLs(ctx, pendingFilter(f), 1, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending URLs: %w", err)
	}

	return textResult(records), nil
}

// SitemapText returns every URL belonging to one sitemap, newline-joined.
func (s *Service) SitemapText(ctx context.Context, sitemapURL string) (*TextResult, error) {
	if _, err := s.store.GetSitemap(ctx, sitemapURL); err != nil {
		return nil, err
	}

	var urls []string
	f := storage.URLFilter{Sitemap: sitemapURL}
	page := 1
	for {
		records, err := s.store.SearchURLs(ctx, f, page, maxPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list sitemap URLs: %w", err)
		}
		for _, rec := range records {
			urls = append(urls, rec.URL)
		}
		if len(records) < maxPageSize {
			break
		}
		page++
	}

	return &TextResult{
		Text:  strings.Join(urls, "\n"),
		Count: len(urls),
		URLs:  urls,
	}, nil
}

// textResult builds a TextResult from records.
func textResult(records []domain.URLRecord) *TextResult {
	urls := make([]string, 0, len(records))
	for _, rec := range records {
		urls = append(urls, rec.URL)
	}
	return &TextResult{
		Text:  strings.Join(urls, "\n"),
		Count: len(urls),
		URLs:  urls,
	}
}

// MarkCopied marks URLs as copied. An explicit URL list wins; otherwise the
// AllPending directive marks everything pending under the given filters,
// using the exact same filter translation as List and PendingText.
func (s *Service) MarkCopied(ctx context.Context, sel CopySelector) (int64, error) {
	if len(sel.URLs) > 0 {
		n, err := s.store.MarkCopiedByURLs(ctx, sel.URLs)
		if err != nil {
			return 0, fmt.Errorf("failed to mark URLs copied: %w", err)
		}
		return n, nil
	}

	if !sel.AllPending {
		return 0, nil
	}

	n, err := s.store.MarkCopiedByFilter(ctx, pendingFilter(sel.Filters))
	if err != nil {
		return 0, fmt.Errorf("failed to mark pending URLs copied: %w", err)
	}
	s.log.Info("marked pending URLs copied", "count", n)
	return n, nil
}

// Sitemaps returns every sitemap with its derived pending/total/copied
// counters.
func (s *Service) Sitemaps(ctx context.Context) ([]domain.SitemapStats, error) {
	records, err := s.store.AllSitemaps(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sitemaps: %w", err)
	}

	stats := make([]domain.SitemapStats, 0, len(records))
	for _, rec := range records {
		total, err := s.store.CountURLs(ctx, storage.URLFilter{Sitemap: rec.URL})
		if err != nil {
			return nil, fmt.Errorf("failed to count sitemap URLs: %w", err)
		}
		pending, err := s.store.CountURLs(ctx, storage.URLFilter{Status: storage.StatusPending, Sitemap: rec.URL})
		if err != nil {
			return nil, fmt.Errorf("failed to count pending sitemap URLs: %w", err)
		}
		copied, err := s.store.CountURLs(ctx, storage.URLFilter{Status: storage.StatusCopied, Sitemap: rec.URL})
		if err != nil {
			return nil, fmt.Errorf("failed to count copied sitemap URLs: %w", err)
		}
		stats = append(stats, domain.SitemapStats{
			Sitemap: rec,
			Total:   total,
			Pending: pending,
			Copied:  copied,
		})
	}
	return stats, nil
}

// DeleteURL removes one URL record.
func (s *Service) DeleteURL(ctx context.Context, url string) error {
	return s.store.DeleteURL(ctx, url)
}

// DeleteSitemap removes one sitemap record. URL records keep their
// parent_sitemap value; the relation is derived, not enforced.
func (s *Service) DeleteSitemap(ctx context.Context, url string) error {
	return s.store.DeleteSitemap(ctx, url)
}

// ClearAll wipes both collections.
func (s *Service) ClearAll(ctx context.Context) error {
	return s.store.ClearAll(ctx)
}
