package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/newsdesk/internal/interfaces"
	"github.com/ternarybob/newsdesk/internal/models"
)

// ArticleHandler exposes the article buffer for inspection.
type ArticleHandler struct {
	storage interfaces.ArticleStorage
	logger  arbor.ILogger
}

// NewArticleHandler creates an article handler.
func NewArticleHandler(storage interfaces.ArticleStorage, logger arbor.ILogger) *ArticleHandler {
	return &ArticleHandler{storage: storage, logger: logger}
}

type articleResponse struct {
	ID          string   `json:"id"`
	ExternalID  string   `json:"external_id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Source      string   `json:"source"`
	Symbols     []string `json:"symbols"`
	PublishedAt string   `json:"published_at"`
	Summary     *string  `json:"summary,omitempty"`
	Insights    *string  `json:"insights,omitempty"`
	Sentiment   *int     `json:"sentiment,omitempty"`
	AIComplete  bool     `json:"ai_complete"`
}

// ListHandler handles GET /api/articles?limit=...&offset=...
func (h *ArticleHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := GetIntParam(r, "limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := GetIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	articles, err := h.storage.ListArticles(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list articles")
		WriteError(w, http.StatusInternalServerError, "failed to list articles")
		return
	}

	results := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		results = append(results, toArticleResponse(a))
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(results),
		"articles": results,
	})
}

// GetHandler handles GET /api/articles/{id}
func (h *ArticleHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/articles/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "article ID required")
		return
	}

	article, err := h.storage.GetArticle(r.Context(), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "article not found")
			return
		}
		h.logger.Error().Str("article_id", id).Err(err).Msg("Failed to get article")
		WriteError(w, http.StatusInternalServerError, "failed to get article")
		return
	}

	WriteJSON(w, http.StatusOK, toArticleResponse(article))
}

func toArticleResponse(a *models.Article) articleResponse {
	return articleResponse{
		ID:          a.ID,
		ExternalID:  a.ExternalID,
		Title:       a.Title,
		URL:         a.URL,
		Source:      a.Source,
		Symbols:     a.Symbols,
		PublishedAt: a.PublishedAt.UTC().Format(time.RFC3339),
		Summary:     a.Summary,
		Insights:    a.Insights,
		Sentiment:   a.Sentiment,
		AIComplete:  a.AIComplete(),
	}
}
