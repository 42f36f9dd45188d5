package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/newsdesk/internal/interfaces"
	"github.com/ternarybob/newsdesk/internal/models"
)

// SearchHandler serves search queries against the news index.
type SearchHandler struct {
	service interfaces.SearchService
	logger  arbor.ILogger
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(service interfaces.SearchService, logger arbor.ILogger) *SearchHandler {
	return &SearchHandler{service: service, logger: logger}
}

// searchResult is the wire representation of a search index entry.
type searchResult struct {
	ID          string   `json:"id"`
	ExternalID  string   `json:"external_id"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Insights    string   `json:"insights"`
	Sentiment   int      `json:"sentiment"`
	Symbols     []string `json:"symbols"`
	Source      string   `json:"source"`
	URL         string   `json:"url"`
	PublishedAt string   `json:"published_at"`
}

// SearchHandler handles GET /api/search?q=...&limit=...&offset=...
func (h *SearchHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("q")
	opts := interfaces.SearchOptions{
		Limit:  GetIntParam(r, "limit", 0),
		Offset: GetIntParam(r, "offset", 0),
	}

	entries, err := h.service.Search(r.Context(), query, opts)
	if err != nil {
		h.logger.Error().Str("query", query).Err(err).Msg("Search request failed")
		WriteError(w, http.StatusInternalServerError, "search failed")
		return
	}

	results := make([]searchResult, 0, len(entries))
	for _, e := range entries {
		results = append(results, toSearchResult(e))
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

func toSearchResult(e *models.SearchEntry) searchResult {
	return searchResult{
		ID:          e.ID,
		ExternalID:  e.ExternalID,
		Title:       e.Title,
		Summary:     e.Summary,
		Insights:    e.Insights,
		Sentiment:   e.Sentiment,
		Symbols:     e.Symbols,
		Source:      e.Source,
		URL:         e.URL,
		PublishedAt: e.PublishedAt.UTC().Format(time.RFC3339),
	}
}
