package quality_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/url-catalog/urlcatalog/internal/fetcher"
	"github.com/url-catalog/urlcatalog/internal/logger"
	"github.com/url-catalog/urlcatalog/internal/quality"
)

func newTestScanner(cfg quality.Config) *quality.Scanner {
	client := fetcher.New(fetcher.Config{}, logger.NewNoOp())
	return quality.NewScanner(client, cfg, logger.NewNoOp())
}

func servePage(t *testing.T, html string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

func productPage(rating, reviews string) string {
	return fmt.Sprintf(`<html><body>
		<div class="product">
			<span class="rating-value">%s</span>
			<span class="review-count">%s</span>
		</div>
	</body></html>`, rating, reviews)
}

func TestAssess(t *testing.T) {
	t.Parallel()

	cfg := quality.Config{
		RatingSelector:  ".rating-value",
		ReviewsSelector: ".review-count",
		MinRating:       4.0,
		MinReviews:      50,
	}

	tests := []struct {
		name string
		html string
		want quality.Assessment
	}{
		{
			name: "passes both thresholds",
			html: productPage("4.6", "1,234 reviews"),
			want: quality.Assessment{Pass: true, Rating: 4.6, Reviews: 1234},
		},
		{
			name: "exactly at thresholds",
			html: productPage("4.0", "50"),
			want: quality.Assessment{Pass: true, Rating: 4.0, Reviews: 50},
		},
		{
			name: "rating below threshold",
			html: productPage("3.9", "900"),
			want: quality.Assessment{Pass: false, Rating: 3.9, Reviews: 900},
		},
		{
			name: "too few reviews",
			html: productPage("4.8", "(49)"),
			want: quality.Assessment{Pass: false, Rating: 4.8, Reviews: 49},
		},
		{
			name: "rating element missing",
			html: `<html><body><span class="review-count">200</span></body></html>`,
			want: quality.Assessment{},
		},
		{
			name: "rating unparseable",
			html: productPage("five stars", "200"),
			want: quality.Assessment{},
		},
		{
			name: "reviews element missing",
			html: `<html><body><span class="rating-value">4.5</span></body></html>`,
			want: quality.Assessment{},
		},
		{
			name: "reviews without digits",
			html: productPage("4.5", "no reviews yet"),
			want: quality.Assessment{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := servePage(t, tt.html)
			scanner := newTestScanner(cfg)

			got := scanner.Assess(context.Background(), server.URL)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssess_FirstMatchingElementWins(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<span class="rating-value">4.9</span>
		<span class="rating-value">1.0</span>
		<span class="review-count">300</span>
	</body></html>`
	server := servePage(t, html)

	scanner := newTestScanner(quality.Config{
		RatingSelector:  ".rating-value",
		ReviewsSelector: ".review-count",
		MinRating:       4.0,
		MinReviews:      50,
	})

	got := scanner.Assess(context.Background(), server.URL)
	assert.True(t, got.Pass)
	assert.InDelta(t, 4.9, got.Rating, 0.001)
}

func TestAssess_FetchFailureYieldsZeroAssessment(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	scanner := newTestScanner(quality.Config{
		RatingSelector:  ".rating-value",
		ReviewsSelector: ".review-count",
	})

	got := scanner.Assess(context.Background(), server.URL)
	assert.Equal(t, quality.Assessment{}, got)
}

func TestNewScanner_DefaultThresholds(t *testing.T) {
	t.Parallel()

	// Zero-valued thresholds fall back to 4.0 / 50.
	server := servePage(t, productPage("4.0", "50"))

	scanner := newTestScanner(quality.Config{
		RatingSelector:  ".rating-value",
		ReviewsSelector: ".review-count",
	})

	got := scanner.Assess(context.Background(), server.URL)
	assert.True(t, got.Pass)
}
