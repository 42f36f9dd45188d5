package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
)

// JobSetting is a persisted scheduler job override.
type JobSetting struct {
	Name      string
	Enabled   bool
	Schedule  string
	UpdatedAt time.Time
}

// JobSettingsStorage persists scheduler job enable state and schedules so
// runtime changes survive restarts.
type JobSettingsStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewJobSettingsStorage creates job settings storage.
func NewJobSettingsStorage(db *SQLiteDB, logger arbor.ILogger) *JobSettingsStorage {
	return &JobSettingsStorage{db: db, logger: logger}
}

// SaveJobSetting upserts the setting for a job.
func (s *JobSettingsStorage) SaveJobSetting(ctx context.Context, setting *JobSetting) error {
	enabled := 0
	if setting.Enabled {
		enabled = 1
	}
	_, err := s.db.DB().ExecContext(ctx, `
		INSERT INTO job_settings (name, enabled, schedule, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			enabled = excluded.enabled,
			schedule = excluded.schedule,
			updated_at = excluded.updated_at`,
		setting.Name, enabled, setting.Schedule, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save job setting: %w", err)
	}
	return nil
}

// GetJobSetting retrieves the setting for a job, or nil if none is stored.
func (s *JobSettingsStorage) GetJobSetting(ctx context.Context, name string) (*JobSetting, error) {
	var setting JobSetting
	var enabled int
	var updatedAt int64

	err := s.db.DB().QueryRowContext(ctx, `
		SELECT name, enabled, schedule, updated_at FROM job_settings WHERE name = ?`,
		name).Scan(&setting.Name, &enabled, &setting.Schedule, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job setting: %w", err)
	}

	setting.Enabled = enabled != 0
	setting.UpdatedAt = time.Unix(updatedAt, 0)
	return &setting, nil
}
