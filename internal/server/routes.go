package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Search
	mux.HandleFunc("/api/search", s.app.SearchHandler.SearchHandler)

	// API routes - Article buffer
	mux.HandleFunc("/api/articles", s.app.ArticleHandler.ListHandler)
	mux.HandleFunc("/api/articles/", s.app.ArticleHandler.GetHandler)

	// API routes - Scheduler jobs
	mux.HandleFunc("/api/scheduler/jobs", s.app.SchedulerHandler.ListJobsHandler)
	mux.HandleFunc("/api/scheduler/jobs/", s.handleJobRoutes)

	// API routes - Fetch control
	mux.HandleFunc("/api/fetch/status", s.app.FetchHandler.StatusHandler)
	mux.HandleFunc("/api/fetch/enable", s.app.FetchHandler.EnableHandler)
	mux.HandleFunc("/api/fetch/disable", s.app.FetchHandler.DisableHandler)
	mux.HandleFunc("/api/fetch/trigger", s.app.FetchHandler.TriggerHandler)

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/health", s.app.StatusHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.StatusHandler.VersionHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.StatusHandler.NotFoundHandler)

	return mux
}

// handleJobRoutes routes /api/scheduler/jobs/{name} and its subpaths.
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/scheduler/jobs/")
	if rest == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	name := rest
	action := ""
	if idx := strings.Index(rest, "/"); idx > 0 {
		name = rest[:idx]
		action = rest[idx+1:]
	}

	switch action {
	case "":
		s.app.SchedulerHandler.JobStatusHandler(w, r, name)
	case "enable":
		s.app.SchedulerHandler.EnableJobHandler(w, r, name)
	case "disable":
		s.app.SchedulerHandler.DisableJobHandler(w, r, name)
	case "schedule":
		s.app.SchedulerHandler.UpdateScheduleHandler(w, r, name)
	case "trigger":
		s.app.SchedulerHandler.TriggerJobHandler(w, r, name)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}
