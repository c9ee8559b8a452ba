// Package sitemap resolves sitemap indexes into a flat, deduplicated set of
// content URLs.
package sitemap

import (
	"context"
	"encoding/xml"
	"strings"

	"github.com/url-catalog/urlcatalog/internal/logger"
)

// Fetcher retrieves the raw bytes of a sitemap document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Result accumulates one resolution pass. URLs maps each content URL to the
// sitemap file that first declared it; Sitemaps records every sitemap file
// visited, including unreachable ones.
type Result struct {
	URLs     map[string]string
	Sitemaps map[string]struct{}
}

// NewResult returns an empty accumulator.
func NewResult() *Result {
	return &Result{
		URLs:     make(map[string]string),
		Sitemaps: make(map[string]struct{}),
	}
}

// document covers both sitemap index and url set payloads: an index carries
// <sitemap><loc> children, a url set carries <url><loc> children.
type document struct {
	Sitemaps []locEntry `xml:"sitemap"`
	URLs     []locEntry `xml:"url"`
}

type locEntry struct {
	Loc string `xml:"loc"`
}

// Resolver recursively walks sitemap indexes depth-first. Resolution is
// single-threaded per root call, so the shared accumulator maps need no
// locking.
type Resolver struct {
	fetcher Fetcher
	log     logger.Interface
}

// NewResolver creates a resolver.
func NewResolver(fetcher Fetcher, log logger.Interface) *Resolver {
	return &Resolver{fetcher: fetcher, log: log}
}

// Resolve walks the sitemap tree rooted at rootURL. The root is always
// recorded as visited even when unreachable. Per-file fetch and parse
// failures are absorbed: the failing branch contributes nothing and the walk
// continues, so partial success is the normal outcome.
func (r *Resolver) Resolve(ctx context.Context, rootURL string) *Result {
	res := NewResult()
	res.Sitemaps[rootURL] = struct{}{}
	r.walk(ctx, rootURL, res)
	return res
}

// walk fetches and parses one sitemap file, recording its entries.
//
// A child sitemap is marked visited BEFORE recursing into it. That ordering
// is the sole termination guard: indexes that reference themselves or an
// ancestor are fetched at most once.
func (r *Resolver) walk(ctx context.Context, sitemapURL string, res *Result) {
	body, err := r.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		r.log.Warn("sitemap fetch failed, skipping branch", "url", sitemapURL, "error", err)
		return
	}

	var doc document
	if err := xml.Unmarshal(body, &doc); err != nil {
		r.log.Warn("sitemap parse failed, skipping branch", "url", sitemapURL, "error", err)
		return
	}

	for _, entry := range doc.Sitemaps {
		child := strings.TrimSpace(entry.Loc)
		if child == "" {
			continue
		}
		if _, seen := res.Sitemaps[child]; seen {
			continue
		}
		res.Sitemaps[child] = struct{}{}
		r.walk(ctx, child, res)
	}

	for _, entry := range doc.URLs {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" {
			continue
		}
		// First-writer-wins: a URL appearing in multiple sitemaps keeps
		// the parent that declared it first.
		if _, seen := res.URLs[loc]; seen {
			continue
		}
		res.URLs[loc] = sitemapURL
	}

	r.log.Debug("resolved sitemap file",
		"url", sitemapURL,
		"children", len(doc.Sitemaps),
		"entries", len(doc.URLs),
	)
}
