package domain

// ImportReport summarizes one sitemap import run. Imports always return
// partial-success statistics rather than booleans; per-URL failures are
// absorbed into the skip counters. Duration is a human-readable
// time.Duration string such as "1.234s".
type ImportReport struct {
	SourceDomain   string `json:"source_domain"`
	TotalURLsFound int    `json:"total_urls_found"`
	URLsStored     int    `json:"urls_stored"`
	SitemapsStored int    `json:"sitemaps_stored"`
	SkippedPattern int    `json:"skipped_pattern"`
	SkippedQuality int    `json:"skipped_quality"`
	Duration       string `json:"duration"`
}

// ScanReport summarizes one batch quality re-scan over unchecked records.
type ScanReport struct {
	Processed int   `json:"processed"`
	Approved  int   `json:"approved"`
	Rejected  int   `json:"rejected"`
	Remaining int64 `json:"remaining"`
}

// BatchReport summarizes one per-sitemap processing pass. Every processed
// candidate is marked copied, including quality failures, so repeated calls
// never revisit the same URLs.
type BatchReport struct {
	Processed int      `json:"processed"`
	Passed    int      `json:"passed"`
	Failed    int      `json:"failed"`
	URLs      []string `json:"urls"`
}

// TransferCounts reports best-effort counts from a backup import.
type TransferCounts struct {
	SitemapsImported int `json:"sitemaps_imported"`
	URLsImported     int `json:"urls_imported"`
}

// GlobalStats aggregates corpus-wide counters. Stats always reflect the whole
// corpus regardless of any active listing filter.
type GlobalStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Copied    int64 `json:"copied"`
	Unchecked int64 `json:"unchecked"`
	Approved  int64 `json:"approved"`
	Rejected  int64 `json:"rejected"`
	Sitemaps  int64 `json:"sitemaps"`
}

// SitemapStats pairs a sitemap record with its derived per-sitemap counters.
type SitemapStats struct {
	Sitemap SitemapRecord `json:"sitemap"`
	Total   int64         `json:"total"`
	Pending int64         `json:"pending"`
	Copied  int64         `json:"copied"`
}
