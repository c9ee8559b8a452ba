package fetcher_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/url-catalog/urlcatalog/internal/fetcher"
	"github.com/url-catalog/urlcatalog/internal/logger"
)

func newTestClient(cfg fetcher.Config) *fetcher.Client {
	return fetcher.New(cfg, logger.NewNoOp())
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFetch_PlainBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<urlset></urlset>"))
	}))
	defer server.Close()

	client := newTestClient(fetcher.Config{})

	body, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<urlset></urlset>", string(body))
}

func TestFetch_GzipByHeader(t *testing.T) {
	t.Parallel()

	payload := []byte("<urlset><url><loc>https://example.com/a</loc></url></urlset>")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(gzipBytes(t, payload))
	}))
	defer server.Close()

	client := newTestClient(fetcher.Config{})

	body, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, payload, body)
}

func TestFetch_GzipByMagicBytes(t *testing.T) {
	t.Parallel()

	payload := []byte("<sitemapindex></sitemapindex>")

	// No Content-Encoding header; only the body reveals the compression.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(gzipBytes(t, payload))
	}))
	defer server.Close()

	client := newTestClient(fetcher.Config{})

	body, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, payload, body)
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
	}{
		{name: "not found", status: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError},
		{name: "redirect not followed to success", status: http.StatusNotModified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := newTestClient(fetcher.Config{})

			_, err := client.Fetch(context.Background(), server.URL)
			require.Error(t, err)

			var fetchErr *fetcher.FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, server.URL, fetchErr.URL)
		})
	}
}

func TestFetch_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("too late"))
	}))
	defer server.Close()

	client := newTestClient(fetcher.Config{Timeout: 20 * time.Millisecond})

	_, err := client.Fetch(context.Background(), server.URL)
	require.Error(t, err)

	var fetchErr *fetcher.FetchError
	assert.ErrorAs(t, err, &fetchErr)
}

func TestFetch_ContextCancelled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(fetcher.Config{})

	_, err := client.Fetch(ctx, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetch_CorruptGzip(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write([]byte("definitely not gzip"))
	}))
	defer server.Close()

	client := newTestClient(fetcher.Config{})

	_, err := client.Fetch(context.Background(), server.URL)
	require.Error(t, err)

	var fetchErr *fetcher.FetchError
	assert.ErrorAs(t, err, &fetchErr)
}

func TestFetch_BodySizeLimit(t *testing.T) {
	t.Parallel()

	big := bytes.Repeat([]byte("x"), 1024)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(big)
	}))
	defer server.Close()

	client := newTestClient(fetcher.Config{MaxBodyBytes: 100})

	body, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, body, 100)
}

func TestFetchError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := &fetcher.FetchError{URL: "https://example.com", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "https://example.com")
}
