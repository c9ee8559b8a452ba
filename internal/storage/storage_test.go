package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURLQuery_NoFilterIsMatchAll(t *testing.T) {
	t.Parallel()

	for _, status := range []string{"", StatusAll} {
		q := buildURLQuery(URLFilter{Status: status})
		assert.Equal(t, map[string]any{"match_all": map[string]any{}}, q)
	}
}

func TestBuildURLQuery_Pending(t *testing.T) {
	t.Parallel()

	q := buildURLQuery(URLFilter{Status: StatusPending})

	boolQuery, ok := q["bool"].(map[string]any)
	require.True(t, ok)

	filters, ok := boolQuery["filter"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, filters, 1)
	assert.Equal(t, term("copied", false), filters[0])

	mustNot, ok := boolQuery["must_not"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, mustNot, 1)
	assert.Equal(t, term("quality_status", StatusRejected), mustNot[0])
}

func TestBuildURLQuery_StatusTerms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status string
		want   map[string]any
	}{
		{status: StatusCopied, want: term("copied", true)},
		{status: StatusUnchecked, want: term("quality_status", StatusUnchecked)},
		{status: StatusRejected, want: term("quality_status", StatusRejected)},
		{status: StatusApproved, want: term("quality_status", StatusApproved)},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			q := buildURLQuery(URLFilter{Status: tt.status})

			boolQuery, ok := q["bool"].(map[string]any)
			require.True(t, ok)
			filters, ok := boolQuery["filter"].([]map[string]any)
			require.True(t, ok)
			require.Len(t, filters, 1)
			assert.Equal(t, tt.want, filters[0])
		})
	}
}

func TestBuildURLQuery_ComposedFilter(t *testing.T) {
	t.Parallel()

	q := buildURLQuery(URLFilter{
		Status:  StatusPending,
		Search:  "widget",
		Sitemap: "https://example.com/posts.xml",
	})

	boolQuery, ok := q["bool"].(map[string]any)
	require.True(t, ok)

	filters, ok := boolQuery["filter"].([]map[string]any)
	require.True(t, ok)
	// copied term, parent_sitemap term, wildcard on url.
	require.Len(t, filters, 3)

	wildcard, ok := filters[2]["wildcard"].(map[string]any)
	require.True(t, ok)
	urlClause, ok := wildcard["url"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "*widget*", urlClause["value"])
	assert.Equal(t, true, urlClause["case_insensitive"])
}

func TestEscapeWildcard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "a*b", want: `a\*b`},
		{in: "a?b", want: `a\?b`},
		{in: `a\b`, want: `a\\b`},
		{in: `*?\`, want: `\*\?\\`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeWildcard(tt.in), "input %q", tt.in)
	}
}

func TestCountUpdated_SkipsFailedItems(t *testing.T) {
	t.Parallel()

	// Two updates succeed, one hits a missing document, and an unrelated
	// create item must not be counted.
	const body = `{
		"errors": true,
		"items": [
			{"update": {"status": 200}},
			{"update": {"status": 404, "error": {"type": "document_missing_exception", "reason": "not found"}}},
			{"update": {"status": 200}},
			{"create": {"status": 201}}
		]
	}`

	var parsed bulkResponse
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))

	assert.Equal(t, int64(2), countUpdated(parsed))
}

func TestCountUpdated_AllMissing(t *testing.T) {
	t.Parallel()

	const body = `{
		"errors": true,
		"items": [
			{"update": {"status": 404, "error": {"type": "document_missing_exception", "reason": "not found"}}},
			{"update": {"status": 404, "error": {"type": "document_missing_exception", "reason": "not found"}}}
		]
	}`

	var parsed bulkResponse
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))

	assert.Equal(t, int64(0), countUpdated(parsed))
}

func TestNew_RequiresClient(t *testing.T) {
	t.Parallel()

	_, err := New(nil, nil, nil)
	assert.ErrorIs(t, err, ErrClientRequired)
}
