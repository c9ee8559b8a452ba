// Package storage provides the Elasticsearch-backed document store for URL
// and sitemap records.
package storage

import (
	"context"

	"github.com/url-catalog/urlcatalog/internal/domain"
)

// Status filter values accepted by URLFilter.
const (
	StatusAll       = "all"
	StatusPending   = "pending"
	StatusCopied    = "copied"
	StatusUnchecked = "unchecked"
	StatusRejected  = "rejected"
	StatusApproved  = "approved"
)

// URLFilter narrows URL queries. The same filter translation backs listing,
// counting, pending-text and filter-scoped copy marking so that what a caller
// sees is exactly what a caller copies.
type URLFilter struct {
	// Status is one of the Status* constants. Empty means all. "pending"
	// selects records that are not copied and not quality-rejected.
	Status string
	// Search is a case-insensitive substring match on the URL.
	Search string
	// Sitemap scopes to records whose parent sitemap equals this URL.
	Sitemap string
}

// QualityUpdate carries one URL's scan outcome for a bulk status update.
type QualityUpdate struct {
	URL     string
	Status  domain.QualityStatus
	Rating  float64
	Reviews int
}

// Store is the document-store seam used by the pipeline, catalog and
// transfer services. All mutations are idempotent or duplicate-tolerant;
// concurrent imports of overlapping sitemaps converge to the same state.
type Store interface {
	// InsertURLs bulk-inserts records with duplicate tolerance and returns
	// how many were actually created. Duplicates are silently dropped.
	InsertURLs(ctx context.Context, records []domain.URLRecord) (int, error)
	// InsertSitemaps bulk-inserts sitemap records with duplicate tolerance.
	InsertSitemaps(ctx context.Context, records []domain.SitemapRecord) (int, error)

	// SearchURLs returns one page of records matching the filter, sorted
	// lexicographically by URL so pagination is stable.
	SearchURLs(ctx context.Context, f URLFilter, page, pageSize int) ([]domain.URLRecord, error)
	// CountURLs counts records matching the filter.
	CountURLs(ctx context.Context, f URLFilter) (int64, error)
	// CountSitemaps counts stored sitemap records.
	CountSitemaps(ctx context.Context) (int64, error)
	// AllSitemaps returns every sitemap record, sorted by URL.
	AllSitemaps(ctx context.Context) ([]domain.SitemapRecord, error)
	// GetSitemap returns one sitemap record or ErrNotFound.
	GetSitemap(ctx context.Context, url string) (*domain.SitemapRecord, error)

	// UncheckedBatch returns up to limit records awaiting a quality scan.
	UncheckedBatch(ctx context.Context, limit int) ([]domain.URLRecord, error)
	// UpdateQuality applies scan outcomes in one bulk update.
	UpdateQuality(ctx context.Context, updates []QualityUpdate) error

	// MarkCopiedByURLs sets copied=true on the given URLs.
	MarkCopiedByURLs(ctx context.Context, urls []string) (int64, error)
	// MarkCopiedByFilter sets copied=true on everything matching the filter.
	MarkCopiedByFilter(ctx context.Context, f URLFilter) (int64, error)

	// DeleteURL removes one URL record or returns ErrNotFound.
	DeleteURL(ctx context.Context, url string) error
	// DeleteSitemap removes one sitemap record or returns ErrNotFound.
	DeleteSitemap(ctx context.Context, url string) error
	// ClearAll wipes both collections. Destructive and irreversible.
	ClearAll(ctx context.Context) error

	// WalkURLs streams the whole URL collection to fn in batches of
	// pageSize, in URL order, without materializing the corpus in memory.
	WalkURLs(ctx context.Context, pageSize int, fn func(batch []domain.URLRecord) error) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
	// Close releases any held resources.
	Close() error
}
