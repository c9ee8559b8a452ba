package api

// ImportRequest is the body of POST /api/v1/import.
type ImportRequest struct {
	SitemapURL    string `json:"sitemap_url" binding:"required"`
	Pattern       string `json:"pattern"`
	QualityFilter bool   `json:"quality_filter"`
}

// ScanRequest is the body of POST /api/v1/scan.
type ScanRequest struct {
	Limit int `json:"limit"`
}

// ProcessRequest is the body of POST /api/v1/sitemaps/process.
type ProcessRequest struct {
	Sitemap string `json:"sitemap" binding:"required"`
	Limit   int    `json:"limit"`
}
