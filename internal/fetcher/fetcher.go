// Package fetcher performs bounded, gzip-aware HTTP fetches of remote
// documents. It is shared by sitemap resolution and quality scanning.
package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/url-catalog/urlcatalog/internal/logger"
)

const (
	// defaultTimeout bounds a single fetch.
	defaultTimeout = 10 * time.Second
	// defaultUserAgent identifies this service to remote hosts.
	defaultUserAgent = "urlcatalog/1.0 (+https://github.com/url-catalog/urlcatalog)"
	// defaultMaxBodyBytes limits the size of fetched responses.
	defaultMaxBodyBytes = 10 * 1024 * 1024 // 10 MB
)

// gzipMagic is the two-byte gzip stream header. Some hosts serve .xml.gz
// sitemaps without declaring Content-Encoding, so the body is sniffed too.
var gzipMagic = []byte{0x1f, 0x8b}

// FetchError wraps any failure to retrieve a single URL: network errors,
// timeouts, non-2xx statuses, and decompression failures all surface as one
// error kind carrying the failing URL. Callers only retry or skip; they never
// distinguish sub-causes.
type FetchError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Config configures a Client.
type Config struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

// Client fetches URLs with a fixed user agent, a bounded timeout, and manual
// gzip decompression. No retries are attempted at this layer; retry policy
// belongs to callers.
type Client struct {
	httpClient   *http.Client
	userAgent    string
	maxBodyBytes int64
	log          logger.Interface
}

// New creates a fetch client.
func New(cfg Config, log logger.Interface) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	// Compression is disabled on the transport so the raw body arrives as
	// sent and decompression stays under this client's control.
	transport := &http.Transport{DisableCompression: true}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
		log:          log,
	}
}

// Fetch issues a GET for the URL and returns the decoded body. Any failure is
// returned as a *FetchError.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	limited := io.LimitReader(resp.Body, c.maxBodyBytes)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("read response body: %w", err)}
	}

	if isGzipped(resp, body) {
		body, err = gunzip(body)
		if err != nil {
			return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("gzip decompress: %w", err)}
		}
	}

	c.log.Debug("fetched URL", "url", rawURL, "bytes", len(body), "status", resp.StatusCode)
	return body, nil
}

// isGzipped reports whether the response body needs manual decompression.
func isGzipped(resp *http.Response, body []byte) bool {
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Encoding")), "gzip") {
		return true
	}
	return bytes.HasPrefix(body, gzipMagic)
}

// gunzip decompresses a gzip-encoded body.
func gunzip(body []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
