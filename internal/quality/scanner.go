// Package quality scores content pages against a rating/review-count
// threshold scraped from the page body.
package quality

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/url-catalog/urlcatalog/internal/logger"
)

// Fetcher retrieves the raw bytes of a content page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Config holds the structural selectors and pass thresholds. The selectors
// are a page-specific convention and arrive from configuration.
type Config struct {
	RatingSelector  string
	ReviewsSelector string
	MinRating       float64
	MinReviews      int
}

// Assessment is the outcome of scanning one URL. A failed fetch, a missing
// element, or an unparseable value yields a non-passing assessment with zero
// rating and reviews; that is the designed failure mode, not an error.
type Assessment struct {
	Pass    bool
	Rating  float64
	Reviews int
}

// Scanner fetches a page and extracts its quality signal. Callers are
// responsible for bounding concurrency when scanning many URLs.
type Scanner struct {
	fetcher Fetcher
	cfg     Config
	log     logger.Interface
}

// NewScanner creates a scanner.
func NewScanner(fetcher Fetcher, cfg Config, log logger.Interface) *Scanner {
	if cfg.MinRating <= 0 {
		cfg.MinRating = 4.0
	}
	if cfg.MinReviews <= 0 {
		cfg.MinReviews = 50
	}
	return &Scanner{fetcher: fetcher, cfg: cfg, log: log}
}

// Assess fetches the page and classifies it against the thresholds.
func (s *Scanner) Assess(ctx context.Context, url string) Assessment {
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		s.log.Debug("quality scan fetch failed", "url", url, "error", err)
		return Assessment{}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.log.Debug("quality scan parse failed", "url", url, "error", err)
		return Assessment{}
	}

	rating, ok := parseRating(doc.Find(s.cfg.RatingSelector).First().Text())
	if !ok {
		return Assessment{}
	}

	reviews, ok := parseReviews(doc.Find(s.cfg.ReviewsSelector).First().Text())
	if !ok {
		return Assessment{}
	}

	pass := rating >= s.cfg.MinRating && reviews >= s.cfg.MinReviews
	s.log.Debug("quality scan complete",
		"url", url,
		"rating", rating,
		"reviews", reviews,
		"pass", pass,
	)
	return Assessment{Pass: pass, Rating: rating, Reviews: reviews}
}

// parseRating parses the rating element's text as a decimal number.
func parseRating(text string) (float64, bool) {
	rating, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, false
	}
	return rating, true
}

// parseReviews strips everything but digits before parsing, so values like
// "1,234 reviews" or "(87)" parse cleanly.
func parseReviews(text string) (int, bool) {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	reviews, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false
	}
	return reviews, true
}
