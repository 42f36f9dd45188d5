// Package scheduler wraps robfig/cron with job registration, enable/disable
// control, manual triggering, and persistence of runtime settings.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/newsdesk/internal/common"
	"github.com/ternarybob/newsdesk/internal/interfaces"
	"github.com/ternarybob/newsdesk/internal/storage/sqlite"
)

// jobEntry represents a registered job with metadata
type jobEntry struct {
	name        string
	schedule    string
	description string
	handler     func() error
	enabled     bool
	cronID      cron.EntryID
	lastRun     *time.Time
	isRunning   bool
	lastError   string
}

// Service implements interfaces.SchedulerService
type Service struct {
	cron     *cron.Cron
	logger   arbor.ILogger
	settings *sqlite.JobSettingsStorage

	jobMu    sync.Mutex // Protects jobs map and running flag
	globalMu sync.Mutex // Prevents concurrent job execution
	jobs     map[string]*jobEntry
	running  bool
}

// NewService creates a new scheduler service. settings may be nil, in which
// case runtime changes are not persisted.
// Schedules are evaluated in UTC so fetch runs stay on the fixed UTC grid
// the daily ledger keys on, regardless of server timezone.
func NewService(settings *sqlite.JobSettingsStorage, logger arbor.ILogger) *Service {
	return &Service{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		logger:   logger,
		settings: settings,
		jobs:     make(map[string]*jobEntry),
	}
}

// Start begins the scheduler. Persisted job settings are applied first so
// schedules and enable flags survive restarts.
func (s *Service) Start() error {
	if s.IsRunning() {
		return fmt.Errorf("scheduler already running")
	}

	if err := s.loadJobSettings(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load persisted job settings")
	}

	s.cron.Start()
	s.jobMu.Lock()
	s.running = true
	s.jobMu.Unlock()

	s.logger.Info().Msg("Scheduler started")
	return nil
}

// Stop halts the scheduler. Running jobs finish their current execution.
func (s *Service) Stop() error {
	if !s.IsRunning() {
		return nil
	}

	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("Jobs did not finish within shutdown timeout")
	}
	s.jobMu.Lock()
	s.running = false
	s.jobMu.Unlock()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning returns true if scheduler is active
func (s *Service) IsRunning() bool {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	return s.running
}

// RegisterJob registers a new job with the scheduler
func (s *Service) RegisterJob(name, schedule, description string, handler func() error) error {
	// Validate schedule before attempting to register
	if err := common.ValidateJobSchedule(schedule); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{
		name:        name,
		schedule:    schedule,
		description: description,
		handler:     handler,
		enabled:     true,
	}

	cronID, err := s.cron.AddFunc(schedule, func() {
		s.executeJob(name)
	})
	if err != nil {
		return fmt.Errorf("failed to add job to cron: %w", err)
	}

	entry.cronID = cronID
	s.jobs[name] = entry

	s.logger.Info().
		Str("job_name", name).
		Str("schedule", schedule).
		Msg("Job registered")

	return nil
}

// EnableJob enables a disabled job
func (s *Service) EnableJob(name string) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return interfaces.ErrJobNotFound
	}

	if entry.enabled {
		return nil // Already enabled
	}

	// Add back to cron scheduler
	cronID, err := s.cron.AddFunc(entry.schedule, func() {
		s.executeJob(name)
	})
	if err != nil {
		return fmt.Errorf("failed to add job to cron: %w", err)
	}

	entry.cronID = cronID
	entry.enabled = true

	s.logger.Info().Str("job_name", name).Msg("Job enabled")

	s.persistJobSetting(entry)
	return nil
}

// DisableJob disables an enabled job
func (s *Service) DisableJob(name string) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return interfaces.ErrJobNotFound
	}

	if !entry.enabled {
		return nil // Already disabled
	}

	s.cron.Remove(entry.cronID)
	entry.enabled = false

	s.logger.Info().Str("job_name", name).Msg("Job disabled")

	s.persistJobSetting(entry)
	return nil
}

// UpdateJobSchedule updates the schedule of an existing job
func (s *Service) UpdateJobSchedule(name, schedule string) error {
	// Validate schedule before attempting to update
	if err := common.ValidateJobSchedule(schedule); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return interfaces.ErrJobNotFound
	}

	// If job is enabled, remove from cron and re-add with new schedule
	if entry.enabled {
		s.cron.Remove(entry.cronID)

		cronID, err := s.cron.AddFunc(schedule, func() {
			s.executeJob(name)
		})
		if err != nil {
			// Restore old schedule if new one fails
			oldCronID, restoreErr := s.cron.AddFunc(entry.schedule, func() {
				s.executeJob(name)
			})
			if restoreErr != nil {
				s.logger.Error().
					Str("job_name", name).
					Err(restoreErr).
					Msg("Failed to restore old schedule after update failure")
				entry.enabled = false
			} else {
				entry.cronID = oldCronID
			}
			return fmt.Errorf("failed to update job schedule: %w", err)
		}

		entry.cronID = cronID
	}

	entry.schedule = schedule

	s.logger.Info().
		Str("job_name", name).
		Str("new_schedule", schedule).
		Msg("Job schedule updated")

	s.persistJobSetting(entry)
	return nil
}

// TriggerJob manually triggers a specific job to run immediately
func (s *Service) TriggerJob(name string) error {
	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		return interfaces.ErrJobNotFound
	}

	if entry.isRunning {
		s.jobMu.Unlock()
		return fmt.Errorf("job %s is already running", name)
	}
	s.jobMu.Unlock()

	s.logger.Info().Str("job_name", name).Msg("Manually triggering job execution")

	// Execute job in background goroutine
	go s.executeJob(name)

	return nil
}

// GetJobStatus returns the status of a specific job
func (s *Service) GetJobStatus(name string) (*interfaces.JobStatus, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return nil, interfaces.ErrJobNotFound
	}

	// Get next run time from cron
	var nextRun *time.Time
	if entry.enabled {
		for _, cronEntry := range s.cron.Entries() {
			if cronEntry.ID == entry.cronID {
				next := cronEntry.Next
				nextRun = &next
				break
			}
		}
	}

	return &interfaces.JobStatus{
		Name:        entry.name,
		Enabled:     entry.enabled,
		Schedule:    entry.schedule,
		Description: entry.description,
		LastRun:     entry.lastRun,
		NextRun:     nextRun,
		IsRunning:   entry.isRunning,
		LastError:   entry.lastError,
	}, nil
}

// GetAllJobStatuses returns all job statuses
func (s *Service) GetAllJobStatuses() map[string]*interfaces.JobStatus {
	// Copy job names while holding lock to avoid concurrent map iteration
	s.jobMu.Lock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	s.jobMu.Unlock()

	statuses := make(map[string]*interfaces.JobStatus)
	for _, name := range names {
		status, err := s.GetJobStatus(name)
		if err == nil {
			statuses[name] = status
		}
	}

	return statuses
}

// executeJob wraps job execution with mutex, panic recovery, and status tracking
func (s *Service) executeJob(name string) {
	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("job_name", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in job execution")

			s.jobMu.Lock()
			if entry, exists := s.jobs[name]; exists {
				entry.isRunning = false
				entry.lastError = fmt.Sprintf("panic: %v", r)
			}
			s.jobMu.Unlock()
		}
	}()

	// Jobs share storage and vendor quotas, so only one runs at a time
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		s.logger.Warn().Str("job_name", name).Msg("Job not found")
		return
	}

	entry.isRunning = true
	started := time.Now()
	handler := entry.handler
	s.jobMu.Unlock()

	s.logger.Info().Str("job_name", name).Msg("Job execution started")

	err := handler()

	completionTime := time.Now()
	s.jobMu.Lock()
	entry.isRunning = false
	entry.lastRun = &completionTime
	if err != nil {
		entry.lastError = err.Error()
		s.logger.Error().
			Str("job_name", name).
			Err(err).
			Dur("duration", time.Since(started)).
			Msg("Job execution failed")
	} else {
		entry.lastError = ""
		s.logger.Info().
			Str("job_name", name).
			Dur("duration", time.Since(started)).
			Msg("Job execution completed")
	}
	s.jobMu.Unlock()
}

// persistJobSetting saves an entry's enable state and schedule. Callers must
// hold jobMu. Persistence failures are logged, not fatal.
func (s *Service) persistJobSetting(entry *jobEntry) {
	if s.settings == nil {
		return
	}

	setting := &sqlite.JobSetting{
		Name:     entry.name,
		Enabled:  entry.enabled,
		Schedule: entry.schedule,
	}
	if err := s.settings.SaveJobSetting(context.Background(), setting); err != nil {
		s.logger.Warn().Err(err).Str("job_name", entry.name).Msg("Failed to persist job setting")
	}
}

// loadJobSettings applies persisted settings to registered jobs. Called
// after registration, before the cron starts.
func (s *Service) loadJobSettings() error {
	if s.settings == nil {
		return nil
	}

	ctx := context.Background()

	s.jobMu.Lock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	s.jobMu.Unlock()

	applied := 0
	for _, name := range names {
		setting, err := s.settings.GetJobSetting(ctx, name)
		if err != nil {
			s.logger.Warn().Err(err).Str("job_name", name).Msg("Failed to load job setting")
			continue
		}
		if setting == nil {
			continue
		}

		s.jobMu.Lock()
		entry := s.jobs[name]
		schedule := entry.schedule
		enabled := entry.enabled
		s.jobMu.Unlock()

		if setting.Schedule != "" && setting.Schedule != schedule {
			if err := s.UpdateJobSchedule(name, setting.Schedule); err != nil {
				s.logger.Error().Err(err).Str("job_name", name).Msg("Failed to apply persisted schedule")
			} else {
				applied++
			}
		}

		if setting.Enabled != enabled {
			if setting.Enabled {
				err = s.EnableJob(name)
			} else {
				err = s.DisableJob(name)
			}
			if err != nil {
				s.logger.Error().Err(err).Str("job_name", name).Msg("Failed to apply persisted enable state")
			} else {
				applied++
			}
		}
	}

	if applied > 0 {
		s.logger.Info().Int("count", applied).Msg("Applied persisted job settings")
	}
	return nil
}
