// Package domain defines the core data types shared across the application.
package domain

import "time"

// QualityStatus classifies a URL's quality-scan outcome.
type QualityStatus string

const (
	// QualityUnchecked means the URL has never been scanned.
	QualityUnchecked QualityStatus = "unchecked"
	// QualityApproved means the URL passed the quality threshold.
	QualityApproved QualityStatus = "approved"
	// QualityRejected means the URL failed the quality threshold or the scan itself failed.
	QualityRejected QualityStatus = "rejected"
)

// URLRecord represents one content page discovered inside a sitemap.
// The URL is the unique key across the whole corpus; inserting a duplicate
// is a no-op, not an error.
type URLRecord struct {
	URL           string        `json:"url"`
	SourceDomain  string        `json:"source_domain"`
	ParentSitemap string        `json:"parent_sitemap,omitempty"`
	ExtractedAt   time.Time     `json:"extracted_at"`
	Copied        bool          `json:"copied"`
	QualityStatus QualityStatus `json:"quality_status"`
	Rating        float64       `json:"rating"`
	ReviewCount   int           `json:"review_count"`
}

// SitemapRecord represents one sitemap XML document (leaf or index) that was
// visited during a resolution pass.
type SitemapRecord struct {
	URL          string    `json:"url"`
	SourceDomain string    `json:"source_domain"`
	FoundAt      time.Time `json:"found_at"`
}
