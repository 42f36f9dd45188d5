package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/newsdesk/internal/interfaces"
)

// FetchHandler exposes the fetch enable flag and manual trigger.
type FetchHandler struct {
	fetch  interfaces.FetchService
	logger arbor.ILogger
}

// NewFetchHandler creates a fetch handler.
func NewFetchHandler(fetch interfaces.FetchService, logger arbor.ILogger) *FetchHandler {
	return &FetchHandler{fetch: fetch, logger: logger}
}

// StatusHandler handles GET /api/fetch/status
func (h *FetchHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"enabled": h.fetch.Enabled(),
	})
}

// EnableHandler handles POST /api/fetch/enable
func (h *FetchHandler) EnableHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	h.fetch.SetEnabled(true)
	WriteSuccess(w, "fetching enabled")
}

// DisableHandler handles POST /api/fetch/disable
func (h *FetchHandler) DisableHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	h.fetch.SetEnabled(false)
	WriteSuccess(w, "fetching disabled")
}

// TriggerHandler handles POST /api/fetch/trigger. The fetch cycle runs in
// the background; the response only confirms it started.
func (h *FetchHandler) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if !h.fetch.Enabled() {
		WriteError(w, http.StatusConflict, "fetching is disabled")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		report, err := h.fetch.Run(ctx)
		if err != nil {
			h.logger.Error().Err(err).Msg("Manual fetch run failed")
			return
		}
		h.logger.Info().
			Int("symbols", report.Symbols).
			Int("articles", report.Articles).
			Msg("Manual fetch run completed")
	}()

	WriteStarted(w, "fetch cycle started")
}
