package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/newsdesk/internal/common"
	"github.com/ternarybob/newsdesk/internal/interfaces"
)

// StatusHandler reports application health and storage counters.
type StatusHandler struct {
	articles  interfaces.ArticleStorage
	index     interfaces.SearchIndexStorage
	ledger    interfaces.FetchLedger
	scheduler interfaces.SchedulerService
	logger    arbor.ILogger
}

// NewStatusHandler creates a status handler.
func NewStatusHandler(
	articles interfaces.ArticleStorage,
	index interfaces.SearchIndexStorage,
	ledger interfaces.FetchLedger,
	scheduler interfaces.SchedulerService,
	logger arbor.ILogger,
) *StatusHandler {
	return &StatusHandler{
		articles:  articles,
		index:     index,
		ledger:    ledger,
		scheduler: scheduler,
		logger:    logger,
	}
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx := r.Context()

	total, aiComplete, err := h.articles.CountArticles(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to count buffer articles")
		WriteError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	indexed, err := h.index.CountEntries(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to count index entries")
		WriteError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	redisUp := h.ledger.Ping(ctx) == nil

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version": common.GetVersion(),
		"buffer": map[string]int{
			"total":       total,
			"ai_complete": aiComplete,
			"pending":     total - aiComplete,
		},
		"index": map[string]int{
			"entries": indexed,
		},
		"scheduler_running": h.scheduler.IsRunning(),
		"redis_connected":   redisUp,
	})
}

// HealthHandler handles GET /api/health
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// VersionHandler handles GET /api/version
func (h *StatusHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"version": common.GetVersion()})
}

// NotFoundHandler handles unmatched API routes.
func (h *StatusHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "not found")
}
