package pipeline_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/url-catalog/urlcatalog/internal/domain"
	"github.com/url-catalog/urlcatalog/internal/logger"
	"github.com/url-catalog/urlcatalog/internal/pipeline"
	"github.com/url-catalog/urlcatalog/internal/quality"
	"github.com/url-catalog/urlcatalog/internal/sitemap"
	"github.com/url-catalog/urlcatalog/internal/storage"
	"github.com/url-catalog/urlcatalog/testutils"
)

// stubResolver returns a fixed resolution result.
type stubResolver struct {
	result *sitemap.Result
}

func (r *stubResolver) Resolve(_ context.Context, rootURL string) *sitemap.Result {
	if r.result != nil {
		return r.result
	}
	res := sitemap.NewResult()
	res.Sitemaps[rootURL] = struct{}{}
	return res
}

// stubScanner classifies URLs by a per-URL assessment map and tracks
// concurrency.
type stubScanner struct {
	assessments map[string]quality.Assessment

	mu            sync.Mutex
	calls         int
	inFlight      int32
	maxInFlight   int32
	blockDuration time.Duration
}

func (s *stubScanner) Assess(_ context.Context, url string) quality.Assessment {
	cur := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)

	s.mu.Lock()
	s.calls++
	if cur > s.maxInFlight {
		s.maxInFlight = cur
	}
	s.mu.Unlock()

	if s.blockDuration > 0 {
		time.Sleep(s.blockDuration)
	}
	return s.assessments[url]
}

func resolution(root string, urls map[string]string, extraSitemaps ...string) *sitemap.Result {
	res := sitemap.NewResult()
	res.Sitemaps[root] = struct{}{}
	for _, sm := range extraSitemaps {
		res.Sitemaps[sm] = struct{}{}
	}
	for u, parent := range urls {
		res.URLs[u] = parent
	}
	return res
}

func TestImport_StoresResolvedURLs(t *testing.T) {
	t.Parallel()

	root := "https://example.com/sitemap.xml"
	resolver := &stubResolver{result: resolution(root, map[string]string{
		"https://example.com/a": root,
		"https://example.com/b": root,
		"https://example.com/c": root,
	})}
	store := testutils.NewMemStore()
	p := pipeline.New(resolver, &stubScanner{}, store, 0, logger.NewNoOp())

	report, err := p.Import(context.Background(), pipeline.ImportOptions{SitemapURL: root})
	require.NoError(t, err)

	assert.Equal(t, "example.com", report.SourceDomain)
	assert.Equal(t, 3, report.TotalURLsFound)
	assert.Equal(t, 3, report.URLsStored)
	assert.Equal(t, 1, report.SitemapsStored)

	// The report carries a human-readable duration like "12ms".
	_, parseErr := time.ParseDuration(report.Duration)
	assert.NoError(t, parseErr)

	rec, ok := store.GetURL("https://example.com/a")
	require.True(t, ok)
	assert.Equal(t, domain.QualityUnchecked, rec.QualityStatus)
	assert.Equal(t, root, rec.ParentSitemap)
	assert.False(t, rec.Copied)
}

func TestImport_Idempotent(t *testing.T) {
	t.Parallel()

	root := "https://example.com/sitemap.xml"
	resolver := &stubResolver{result: resolution(root, map[string]string{
		"https://example.com/a": root,
		"https://example.com/b": root,
	})}
	store := testutils.NewMemStore()
	p := pipeline.New(resolver, &stubScanner{}, store, 0, logger.NewNoOp())

	first, err := p.Import(context.Background(), pipeline.ImportOptions{SitemapURL: root})
	require.NoError(t, err)
	assert.Equal(t, 2, first.URLsStored)

	second, err := p.Import(context.Background(), pipeline.ImportOptions{SitemapURL: root})
	require.NoError(t, err)
	assert.Equal(t, 2, second.TotalURLsFound)
	assert.Equal(t, 0, second.URLsStored)
	assert.Equal(t, 0, second.SitemapsStored)
	assert.Equal(t, 2, store.URLCount())
}

func TestImport_InvalidSitemapURL(t *testing.T) {
	t.Parallel()

	p := pipeline.New(&stubResolver{}, &stubScanner{}, testutils.NewMemStore(), 0, logger.NewNoOp())

	tests := []string{
		"not a url",
		"ftp://example.com/sitemap.xml",
		"/relative/sitemap.xml",
		"",
	}

	for _, rawURL := range tests {
		_, err := p.Import(context.Background(), pipeline.ImportOptions{SitemapURL: rawURL})
		assert.ErrorIs(t, err, pipeline.ErrInvalidSitemapURL, "url %q", rawURL)
	}
}

func TestImport_EmptyResolution(t *testing.T) {
	t.Parallel()

	p := pipeline.New(&stubResolver{}, &stubScanner{}, testutils.NewMemStore(), 0, logger.NewNoOp())

	_, err := p.Import(context.Background(), pipeline.ImportOptions{
		SitemapURL: "https://example.com/sitemap.xml",
	})
	assert.ErrorIs(t, err, pipeline.ErrResolutionEmpty)
}

func TestImport_PatternFilter(t *testing.T) {
	t.Parallel()

	root := "https://example.com/sitemap.xml"
	resolver := &stubResolver{result: resolution(root, map[string]string{
		"https://example.com/products/1": root,
		"https://example.com/products/2": root,
		"https://example.com/blog/post":  root,
	})}
	store := testutils.NewMemStore()
	p := pipeline.New(resolver, &stubScanner{}, store, 0, logger.NewNoOp())

	report, err := p.Import(context.Background(), pipeline.ImportOptions{
		SitemapURL: root,
		Pattern:    "/products/",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalURLsFound)
	assert.Equal(t, 1, report.SkippedPattern)
	assert.Equal(t, 2, report.URLsStored)

	_, ok := store.GetURL("https://example.com/blog/post")
	assert.False(t, ok)
}

func TestImport_QualityFilter(t *testing.T) {
	t.Parallel()

	root := "https://example.com/sitemap.xml"
	resolver := &stubResolver{result: resolution(root, map[string]string{
		"https://example.com/good": root,
		"https://example.com/bad":  root,
	})}
	scanner := &stubScanner{assessments: map[string]quality.Assessment{
		"https://example.com/good": {Pass: true, Rating: 4.7, Reviews: 312},
		"https://example.com/bad":  {Pass: false, Rating: 2.1, Reviews: 9},
	}}
	store := testutils.NewMemStore()
	p := pipeline.New(resolver, scanner, store, 0, logger.NewNoOp())

	report, err := p.Import(context.Background(), pipeline.ImportOptions{
		SitemapURL:    root,
		QualityFilter: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.SkippedQuality)
	assert.Equal(t, 1, report.URLsStored)

	rec, ok := store.GetURL("https://example.com/good")
	require.True(t, ok)
	assert.Equal(t, domain.QualityApproved, rec.QualityStatus)
	assert.InDelta(t, 4.7, rec.Rating, 0.001)
	assert.Equal(t, 312, rec.ReviewCount)
}

func TestImport_FiltersCompose(t *testing.T) {
	t.Parallel()

	// Pattern runs first, so a URL failing both counts once, under pattern.
	root := "https://example.com/sitemap.xml"
	resolver := &stubResolver{result: resolution(root, map[string]string{
		"https://example.com/products/good": root,
		"https://example.com/products/bad":  root,
		"https://example.com/blog/bad":      root,
	})}
	scanner := &stubScanner{assessments: map[string]quality.Assessment{
		"https://example.com/products/good": {Pass: true, Rating: 4.5, Reviews: 100},
	}}
	store := testutils.NewMemStore()
	p := pipeline.New(resolver, scanner, store, 0, logger.NewNoOp())

	report, err := p.Import(context.Background(), pipeline.ImportOptions{
		SitemapURL:    root,
		Pattern:       "/products/",
		QualityFilter: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.SkippedPattern)
	assert.Equal(t, 1, report.SkippedQuality)
	assert.Equal(t, 1, report.URLsStored)
	assert.Equal(t, 2, scanner.calls, "pattern-rejected URLs must never be fetched")
}

func TestScanBatch_DrainsBacklogInBoundedBatches(t *testing.T) {
	t.Parallel()

	store := testutils.NewMemStore()
	records := make([]domain.URLRecord, 0, 25)
	assessments := make(map[string]quality.Assessment, 25)
	for i := 0; i < 25; i++ {
		u := testURL(i)
		records = append(records, domain.URLRecord{
			URL:           u,
			SourceDomain:  "example.com",
			QualityStatus: domain.QualityUnchecked,
		})
		// Every third URL passes.
		if i%3 == 0 {
			assessments[u] = quality.Assessment{Pass: true, Rating: 4.5, Reviews: 80}
		}
	}
	_, err := store.InsertURLs(context.Background(), records)
	require.NoError(t, err)

	scanner := &stubScanner{assessments: assessments}
	p := pipeline.New(&stubResolver{}, scanner, store, 10, logger.NewNoOp())

	var processed, approved, rejected int
	calls := 0
	for {
		report, scanErr := p.ScanBatch(context.Background(), 10)
		require.NoError(t, scanErr)
		if report.Processed == 0 {
			break
		}
		calls++
		processed += report.Processed
		approved += report.Approved
		rejected += report.Rejected
		if report.Remaining == 0 {
			break
		}
	}

	assert.Equal(t, 3, calls, "25 records at limit 10 drain in 3 passes")
	assert.Equal(t, 25, processed)
	assert.Equal(t, 9, approved)
	assert.Equal(t, 16, rejected)

	remaining, err := store.CountURLs(context.Background(), storage.URLFilter{Status: storage.StatusUnchecked})
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestScanBatch_EmptyBacklog(t *testing.T) {
	t.Parallel()

	p := pipeline.New(&stubResolver{}, &stubScanner{}, testutils.NewMemStore(), 0, logger.NewNoOp())

	report, err := p.ScanBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, report.Processed)
	assert.Zero(t, report.Remaining)
}

func TestScanBatch_ConcurrencyBounded(t *testing.T) {
	t.Parallel()

	store := testutils.NewMemStore()
	records := make([]domain.URLRecord, 0, 20)
	for i := 0; i < 20; i++ {
		records = append(records, domain.URLRecord{
			URL:           testURL(i),
			QualityStatus: domain.QualityUnchecked,
		})
	}
	_, err := store.InsertURLs(context.Background(), records)
	require.NoError(t, err)

	scanner := &stubScanner{blockDuration: 10 * time.Millisecond}
	p := pipeline.New(&stubResolver{}, scanner, store, 5, logger.NewNoOp())

	_, err = p.ScanBatch(context.Background(), 20)
	require.NoError(t, err)

	assert.Equal(t, 20, scanner.calls)
	assert.LessOrEqual(t, scanner.maxInFlight, int32(5))
}

func TestProcessSitemapBatch(t *testing.T) {
	t.Parallel()

	sm := "https://example.com/posts.xml"
	store := testutils.NewMemStore()
	_, err := store.InsertSitemaps(context.Background(), []domain.SitemapRecord{
		{URL: sm, SourceDomain: "example.com"},
	})
	require.NoError(t, err)

	_, err = store.InsertURLs(context.Background(), []domain.URLRecord{
		{URL: "https://example.com/1", ParentSitemap: sm, QualityStatus: domain.QualityUnchecked},
		{URL: "https://example.com/2", ParentSitemap: sm, QualityStatus: domain.QualityUnchecked},
		{URL: "https://example.com/3", ParentSitemap: sm, QualityStatus: domain.QualityUnchecked, Copied: true},
		{URL: "https://example.com/other", ParentSitemap: "https://example.com/pages.xml"},
	})
	require.NoError(t, err)

	scanner := &stubScanner{assessments: map[string]quality.Assessment{
		"https://example.com/1": {Pass: true, Rating: 4.2, Reviews: 60},
	}}
	p := pipeline.New(&stubResolver{}, scanner, store, 0, logger.NewNoOp())

	report, err := p.ProcessSitemapBatch(context.Background(), sm, 10)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Processed, "copied records and other sitemaps are out of scope")
	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"https://example.com/1"}, report.URLs)

	// Failures are marked copied too, so the next batch moves on.
	rec, ok := store.GetURL("https://example.com/2")
	require.True(t, ok)
	assert.True(t, rec.Copied)

	other, ok := store.GetURL("https://example.com/other")
	require.True(t, ok)
	assert.False(t, other.Copied)
}

func TestProcessSitemapBatch_UnknownSitemap(t *testing.T) {
	t.Parallel()

	p := pipeline.New(&stubResolver{}, &stubScanner{}, testutils.NewMemStore(), 0, logger.NewNoOp())

	_, err := p.ProcessSitemapBatch(context.Background(), "https://example.com/missing.xml", 10)
	assert.ErrorIs(t, err, pipeline.ErrSitemapNotFound)
}

func TestProcessSitemapBatch_NothingPending(t *testing.T) {
	t.Parallel()

	sm := "https://example.com/posts.xml"
	store := testutils.NewMemStore()
	_, err := store.InsertSitemaps(context.Background(), []domain.SitemapRecord{{URL: sm}})
	require.NoError(t, err)

	p := pipeline.New(&stubResolver{}, &stubScanner{}, store, 0, logger.NewNoOp())

	report, err := p.ProcessSitemapBatch(context.Background(), sm, 10)
	require.NoError(t, err)
	assert.Zero(t, report.Processed)
	assert.Empty(t, report.URLs)
}

// testURL builds a deterministic URL that sorts in index order for two-digit
// indexes.
func testURL(i int) string {
	return "https://example.com/page-" + string(rune('a'+i/10)) + string(rune('0'+i%10))
}
