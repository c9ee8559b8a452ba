// Package pipeline orchestrates sitemap resolution, candidate filtering and
// bulk persistence.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/url-catalog/urlcatalog/internal/domain"
	"github.com/url-catalog/urlcatalog/internal/logger"
	"github.com/url-catalog/urlcatalog/internal/quality"
	"github.com/url-catalog/urlcatalog/internal/sitemap"
	"github.com/url-catalog/urlcatalog/internal/storage"
)

// defaultBatchSize bounds concurrent quality fetches. Tens in flight, never
// thousands: unbounded fan-out against one host risks connection exhaustion
// and rate-limit bans.
const defaultBatchSize = 15

// Resolver walks a sitemap tree into a deduplicated URL map.
type Resolver interface {
	Resolve(ctx context.Context, rootURL string) *sitemap.Result
}

// Scanner assesses one URL's quality signal.
type Scanner interface {
	Assess(ctx context.Context, url string) quality.Assessment
}

// ImportOptions configures one import run.
type ImportOptions struct {
	// SitemapURL is the root sitemap or sitemap index to resolve.
	SitemapURL string
	// Pattern, when non-empty, rejects URLs that do not contain it.
	Pattern string
	// QualityFilter, when set, admits only URLs passing the quality scan.
	QualityFilter bool
}

// Pipeline coordinates resolver, scanner and store for imports and batch
// re-scans.
type Pipeline struct {
	resolver  Resolver
	scanner   Scanner
	store     storage.Store
	log       logger.Interface
	batchSize int
}

// New creates a pipeline. batchSize bounds concurrent scan fan-out.
func New(resolver Resolver, scanner Scanner, store storage.Store, batchSize int, log logger.Interface) *Pipeline {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Pipeline{
		resolver:  resolver,
		scanner:   scanner,
		store:     store,
		log:       log,
		batchSize: batchSize,
	}
}

// candidate is one resolved URL with the sitemap that declared it.
type candidate struct {
	url    string
	parent string
}

// Import resolves the sitemap tree, filters candidates and bulk-inserts the
// survivors. Per-URL failures never abort the run; they land in the report's
// skip counters.
func (p *Pipeline) Import(ctx context.Context, opts ImportOptions) (*domain.ImportReport, error) {
	start := time.Now()

	sourceDomain, err := deriveSourceDomain(opts.SitemapURL)
	if err != nil {
		return nil, err
	}

	res := p.resolver.Resolve(ctx, opts.SitemapURL)

	// The root is always in the sitemap set (seeded by the resolver), so
	// "nothing beyond the root itself" is the empty outcome.
	if len(res.URLs) == 0 && len(res.Sitemaps) <= 1 {
		return nil, fmt.Errorf("%w: %s", ErrResolutionEmpty, opts.SitemapURL)
	}

	report := &domain.ImportReport{
		SourceDomain:   sourceDomain,
		TotalURLsFound: len(res.URLs),
	}

	candidates := sortedCandidates(res.URLs)

	// Pattern filter is cheap and synchronous; it runs before any fetch.
	if opts.Pattern != "" {
		kept := candidates[:0]
		for _, c := range candidates {
			if !strings.Contains(c.url, opts.Pattern) {
				report.SkippedPattern++
				continue
			}
			kept = append(kept, c)
		}
		candidates = kept
	}

	now := time.Now().UTC()
	records := make([]domain.URLRecord, 0, len(candidates))

	if opts.QualityFilter {
		results := p.assessAll(ctx, candidates)
		for _, r := range results {
			if !r.assessment.Pass {
				report.SkippedQuality++
				continue
			}
			records = append(records, domain.URLRecord{
				URL:           r.cand.url,
				SourceDomain:  sourceDomain,
				ParentSitemap: r.cand.parent,
				ExtractedAt:   now,
				QualityStatus: domain.QualityApproved,
				Rating:        r.assessment.Rating,
				ReviewCount:   r.assessment.Reviews,
			})
		}
	} else {
		// Deferred scanning: records start unchecked and the batch
		// re-scan entry point picks them up later.
		for _, c := range candidates {
			records = append(records, domain.URLRecord{
				URL:           c.url,
				SourceDomain:  sourceDomain,
				ParentSitemap: c.parent,
				ExtractedAt:   now,
				QualityStatus: domain.QualityUnchecked,
			})
		}
	}

	stored, err := p.store.InsertURLs(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("failed to store URL records: %w", err)
	}
	report.URLsStored = stored

	sitemapRecords := make([]domain.SitemapRecord, 0, len(res.Sitemaps))
	for sm := range res.Sitemaps {
		sitemapRecords = append(sitemapRecords, domain.SitemapRecord{
			URL:          sm,
			SourceDomain: sourceDomain,
			FoundAt:      now,
		})
	}
	sitemapsStored, err := p.store.InsertSitemaps(ctx, sitemapRecords)
	if err != nil {
		return nil, fmt.Errorf("failed to store sitemap records: %w", err)
	}
	report.SitemapsStored = sitemapsStored
	report.Duration = time.Since(start).Round(time.Millisecond).String()

	p.log.Info("import complete",
		"sitemap", opts.SitemapURL,
		"found", report.TotalURLsFound,
		"stored", report.URLsStored,
		"sitemaps", report.SitemapsStored,
		"skipped_pattern", report.SkippedPattern,
		"skipped_quality", report.SkippedQuality,
		"duration", report.Duration,
	)
	return report, nil
}

// deriveSourceDomain validates the root URL and extracts its host.
func deriveSourceDomain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: %q", ErrInvalidSitemapURL, rawURL)
	}
	return u.Host, nil
}

// sortedCandidates flattens the resolved URL map in lexicographic order so
// batching is deterministic.
func sortedCandidates(urls map[string]string) []candidate {
	candidates := make([]candidate, 0, len(urls))
	for u, parent := range urls {
		candidates = append(candidates, candidate{url: u, parent: parent})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].url < candidates[j].url
	})
	return candidates
}
