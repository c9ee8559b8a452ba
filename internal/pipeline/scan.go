package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/url-catalog/urlcatalog/internal/domain"
	"github.com/url-catalog/urlcatalog/internal/quality"
	"github.com/url-catalog/urlcatalog/internal/storage"
)

// assessResult pairs a candidate with its scan outcome. Carrying results as
// explicit per-item values keeps skip counts deterministic and testable.
type assessResult struct {
	cand       candidate
	assessment quality.Assessment
}

// assessAll scans candidates in fixed-size concurrent chunks. Within a chunk
// ordering is irrelevant; only the union of outcomes matters.
func (p *Pipeline) assessAll(ctx context.Context, candidates []candidate) []assessResult {
	results := make([]assessResult, len(candidates))

	for start := 0; start < len(candidates); start += p.batchSize {
		end := min(start+p.batchSize, len(candidates))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx] = assessResult{
					cand:       candidates[idx],
					assessment: p.scanner.Assess(ctx, candidates[idx].url),
				}
			}(i)
		}
		wg.Wait()
	}

	return results
}

// ScanBatch selects up to limit unchecked records, scans them concurrently
// and bulk-updates their status. The bound is deliberate backpressure:
// callers loop over ScanBatch until Remaining reaches zero, each call
// processing one bounded slice.
func (p *Pipeline) ScanBatch(ctx context.Context, limit int) (*domain.ScanReport, error) {
	if limit <= 0 {
		limit = defaultBatchSize
	}

	batch, err := p.store.UncheckedBatch(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select unchecked records: %w", err)
	}

	report := &domain.ScanReport{}
	if len(batch) == 0 {
		return report, nil
	}

	candidates := make([]candidate, len(batch))
	for i, rec := range batch {
		candidates[i] = candidate{url: rec.URL, parent: rec.ParentSitemap}
	}

	results := p.assessAll(ctx, candidates)

	updates := make([]storage.QualityUpdate, 0, len(results))
	for _, r := range results {
		status := domain.QualityRejected
		if r.assessment.Pass {
			status = domain.QualityApproved
			report.Approved++
		} else {
			report.Rejected++
		}
		updates = append(updates, storage.QualityUpdate{
			URL:     r.cand.url,
			Status:  status,
			Rating:  r.assessment.Rating,
			Reviews: r.assessment.Reviews,
		})
	}
	report.Processed = len(updates)

	if err := p.store.UpdateQuality(ctx, updates); err != nil {
		return nil, fmt.Errorf("failed to update scan results: %w", err)
	}

	remaining, err := p.store.CountURLs(ctx, storage.URLFilter{Status: storage.StatusUnchecked})
	if err != nil {
		return nil, fmt.Errorf("failed to count remaining records: %w", err)
	}
	report.Remaining = remaining

	p.log.Info("quality scan batch complete",
		"processed", report.Processed,
		"approved", report.Approved,
		"rejected", report.Rejected,
		"remaining", report.Remaining,
	)
	return report, nil
}

// ProcessSitemapBatch scans up to limit pending URLs belonging to one
// sitemap and returns the URLs that passed. Every processed candidate is
// marked copied, including quality failures, so the next call moves on to
// fresh URLs. Failed candidates get no distinct status here; only the
// copied flag removes them from future pending views.
func (p *Pipeline) ProcessSitemapBatch(ctx context.Context, sitemapURL string, limit int) (*domain.BatchReport, error) {
	if limit <= 0 {
		limit = defaultBatchSize
	}

	if _, err := p.store.GetSitemap(ctx, sitemapURL); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSitemapNotFound, sitemapURL)
		}
		return nil, err
	}

	pending, err := p.store.SearchURLs(ctx, storage.URLFilter{
		Status:  storage.StatusPending,
		Sitemap: sitemapURL,
	}, 1, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending records: %w", err)
	}

	report := &domain.BatchReport{URLs: []string{}}
	if len(pending) == 0 {
		return report, nil
	}

	candidates := make([]candidate, len(pending))
	for i, rec := range pending {
		candidates[i] = candidate{url: rec.URL, parent: rec.ParentSitemap}
	}

	results := p.assessAll(ctx, candidates)

	processed := make([]string, 0, len(results))
	for _, r := range results {
		processed = append(processed, r.cand.url)
		if r.assessment.Pass {
			report.Passed++
			report.URLs = append(report.URLs, r.cand.url)
		} else {
			report.Failed++
		}
	}
	report.Processed = len(processed)

	if _, err := p.store.MarkCopiedByURLs(ctx, processed); err != nil {
		return nil, fmt.Errorf("failed to mark batch copied: %w", err)
	}

	p.log.Info("sitemap batch processed",
		"sitemap", sitemapURL,
		"processed", report.Processed,
		"passed", report.Passed,
		"failed", report.Failed,
	)
	return report, nil
}
