package pipeline

import "errors"

var (
	// ErrInvalidSitemapURL indicates the root sitemap URL is malformed.
	ErrInvalidSitemapURL = errors.New("invalid sitemap URL")
	// ErrResolutionEmpty indicates the root sitemap yielded zero URLs and
	// zero child sitemaps, which means a wrong URL or an unparseable
	// document. This is the only resolution outcome reported as a failure.
	ErrResolutionEmpty = errors.New("sitemap resolution found nothing")
	// ErrSitemapNotFound indicates a per-sitemap operation referenced an
	// unknown sitemap.
	ErrSitemapNotFound = errors.New("sitemap not found")
)
