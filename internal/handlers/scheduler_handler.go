package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/newsdesk/internal/interfaces"
)

// SchedulerHandler exposes job management endpoints.
type SchedulerHandler struct {
	scheduler interfaces.SchedulerService
	logger    arbor.ILogger
}

// NewSchedulerHandler creates a scheduler handler.
func NewSchedulerHandler(scheduler interfaces.SchedulerService, logger arbor.ILogger) *SchedulerHandler {
	return &SchedulerHandler{scheduler: scheduler, logger: logger}
}

// ListJobsHandler handles GET /api/scheduler/jobs
func (h *SchedulerHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"running": h.scheduler.IsRunning(),
		"jobs":    h.scheduler.GetAllJobStatuses(),
	})
}

// JobStatusHandler handles GET /api/scheduler/jobs/{name}
func (h *SchedulerHandler) JobStatusHandler(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	status, err := h.scheduler.GetJobStatus(name)
	if err != nil {
		h.writeJobError(w, name, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// EnableJobHandler handles POST /api/scheduler/jobs/{name}/enable
func (h *SchedulerHandler) EnableJobHandler(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := h.scheduler.EnableJob(name); err != nil {
		h.writeJobError(w, name, err)
		return
	}
	WriteSuccess(w, "job enabled")
}

// DisableJobHandler handles POST /api/scheduler/jobs/{name}/disable
func (h *SchedulerHandler) DisableJobHandler(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := h.scheduler.DisableJob(name); err != nil {
		h.writeJobError(w, name, err)
		return
	}
	WriteSuccess(w, "job disabled")
}

// UpdateScheduleHandler handles PUT /api/scheduler/jobs/{name}/schedule
func (h *SchedulerHandler) UpdateScheduleHandler(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, http.MethodPut) {
		return
	}

	var body struct {
		Schedule string `json:"schedule"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Schedule == "" {
		WriteError(w, http.StatusBadRequest, "schedule is required")
		return
	}

	if err := h.scheduler.UpdateJobSchedule(name, body.Schedule); err != nil {
		if errors.Is(err, interfaces.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "job not found")
			return
		}
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteSuccess(w, "schedule updated")
}

// TriggerJobHandler handles POST /api/scheduler/jobs/{name}/trigger
func (h *SchedulerHandler) TriggerJobHandler(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := h.scheduler.TriggerJob(name); err != nil {
		if errors.Is(err, interfaces.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "job not found")
			return
		}
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	WriteStarted(w, "job triggered")
}

func (h *SchedulerHandler) writeJobError(w http.ResponseWriter, name string, err error) {
	if errors.Is(err, interfaces.ErrJobNotFound) {
		WriteError(w, http.StatusNotFound, "job not found")
		return
	}
	h.logger.Error().Str("job_name", name).Err(err).Msg("Scheduler request failed")
	WriteError(w, http.StatusInternalServerError, err.Error())
}
