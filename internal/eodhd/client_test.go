package eodhd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient("test-token", WithBaseURL(server.URL))
	return server, client
}

func TestGetNews(t *testing.T) {
	var gotQuery map[string]string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/news", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{
			"s":         q.Get("s"),
			"limit":     q.Get("limit"),
			"api_token": q.Get("api_token"),
			"fmt":       q.Get("fmt"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"date": "2026-08-20 04:15:00", "title": "CBA profit", "content": "body", "link": "https://afr.com/1", "symbols": ["CBA.AU"]},
			{"date": "2026-08-19", "title": "BHP update", "content": "body", "link": "https://afr.com/2", "symbols": ["BHP.AU"]}
		]`))
	})

	items, err := client.GetNews(context.Background(), []string{"CBA.AU"}, WithLimit(5))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "CBA.AU", gotQuery["s"])
	assert.Equal(t, "5", gotQuery["limit"])
	assert.Equal(t, "test-token", gotQuery["api_token"])
	assert.Equal(t, "json", gotQuery["fmt"])

	assert.Equal(t, "CBA profit", items[0].Title)
	assert.Equal(t, time.Date(2026, 8, 20, 4, 15, 0, 0, time.UTC), items[0].Date)
	// Date-only strings still parse
	assert.Equal(t, time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC), items[1].Date)
}

func TestGetNewsAPIError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid token"))
	})

	_, err := client.GetNews(context.Background(), []string{"CBA.AU"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "/news", apiErr.Endpoint)
}

func TestGetNewsRateLimited(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.GetNews(context.Background(), []string{"CBA.AU"})
	require.Error(t, err)

	var rateErr *RateLimitError
	assert.ErrorAs(t, err, &rateErr)
}

func TestGetNewsContextCancelled(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetNews(ctx, []string{"CBA.AU"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	// Shutdown is not vendor throttling
	var rateErr *RateLimitError
	assert.False(t, errors.As(err, &rateErr))
}

func TestNewsSourceFetchNews(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"date": "2026-08-20 04:15:00", "title": "  CBA profit  ", "content": "body", "link": "https://afr.com/1", "symbols": ["CBA.AU"]}
		]`))
	})

	source := NewNewsSource(client)
	articles, err := source.FetchNews(context.Background(), "CBA.AU", 5)
	require.NoError(t, err)
	require.Len(t, articles, 1)

	got := articles[0]
	assert.Equal(t, "CBA profit", got.Title)
	assert.Equal(t, "https://afr.com/1", got.URL)
	assert.NotEmpty(t, got.ExternalID)
	// Stable ID: same link always hashes to the same ID
	assert.Equal(t, externalID("https://afr.com/1"), got.ExternalID)
}
