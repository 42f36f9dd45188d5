package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/newsdesk/internal/interfaces"
	"github.com/ternarybob/newsdesk/internal/models"
)

// mockSearchService records the last query and returns canned entries.
type mockSearchService struct {
	entries   []*models.SearchEntry
	err       error
	lastQuery string
	lastOpts  interfaces.SearchOptions
}

func (m *mockSearchService) Search(ctx context.Context, query string, opts interfaces.SearchOptions) ([]*models.SearchEntry, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

func TestSearchHandler(t *testing.T) {
	service := &mockSearchService{entries: []*models.SearchEntry{
		{
			ID:          "idx_1",
			ExternalID:  "ext_1",
			Title:       "CBA profit",
			Summary:     "summary",
			Insights:    "insights",
			Sentiment:   42,
			Symbols:     []string{"ASX:CBA"},
			Source:      "afr.com",
			URL:         "https://afr.com/1",
			PublishedAt: time.Date(2026, 8, 20, 4, 0, 0, 0, time.UTC),
		},
	}}
	handler := NewSearchHandler(service, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=CBA&limit=5&offset=10", nil)
	w := httptest.NewRecorder()
	handler.SearchHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if service.lastQuery != "CBA" {
		t.Errorf("query = %q, want CBA", service.lastQuery)
	}
	if service.lastOpts.Limit != 5 || service.lastOpts.Offset != 10 {
		t.Errorf("opts = %+v", service.lastOpts)
	}

	var body struct {
		Query   string         `json:"query"`
		Count   int            `json:"count"`
		Results []searchResult `json:"results"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Count != 1 || len(body.Results) != 1 {
		t.Fatalf("body = %+v", body)
	}
	got := body.Results[0]
	if got.Title != "CBA profit" || got.Sentiment != 42 {
		t.Errorf("result = %+v", got)
	}
	if got.PublishedAt != "2026-08-20T04:00:00Z" {
		t.Errorf("PublishedAt = %q", got.PublishedAt)
	}
}

func TestSearchHandlerEmptyResults(t *testing.T) {
	handler := NewSearchHandler(&mockSearchService{}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=nothing", nil)
	w := httptest.NewRecorder()
	handler.SearchHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Count   int            `json:"count"`
		Results []searchResult `json:"results"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 0 || body.Results == nil {
		t.Errorf("empty result set should be [], got %+v", body)
	}
}

func TestSearchHandlerServiceError(t *testing.T) {
	handler := NewSearchHandler(&mockSearchService{err: errors.New("boom")}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=CBA", nil)
	w := httptest.NewRecorder()
	handler.SearchHandler(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestSearchHandlerMethodNotAllowed(t *testing.T) {
	handler := NewSearchHandler(&mockSearchService{}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/search", nil)
	w := httptest.NewRecorder()
	handler.SearchHandler(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
