package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/newsdesk/internal/models"
)

// Message represents a single LLM chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

// NewsVendor is the external news provider, treated as a black box.
// Symbols are vendor-format (e.g., "CBA.AU").
type NewsVendor interface {
	FetchNews(ctx context.Context, symbol string, limit int) ([]VendorArticle, error)
}

// VendorArticle is a raw article as returned by the vendor.
type VendorArticle struct {
	ExternalID  string
	Title       string
	Content     string
	URL         string
	Symbols     []string // Vendor-format symbols
	PublishedAt time.Time
}

// JobStatus describes a registered scheduler job.
type JobStatus struct {
	Name        string     `json:"name"`
	Enabled     bool       `json:"enabled"`
	Schedule    string     `json:"schedule"`
	Description string     `json:"description"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	IsRunning   bool       `json:"is_running"`
	LastError   string     `json:"last_error,omitempty"`
}

// SchedulerService manages cron-scheduled background jobs.
type SchedulerService interface {
	Start() error
	Stop() error
	IsRunning() bool

	RegisterJob(name, schedule, description string, handler func() error) error
	EnableJob(name string) error
	DisableJob(name string) error
	UpdateJobSchedule(name, schedule string) error
	TriggerJob(name string) error

	GetJobStatus(name string) (*JobStatus, error)
	GetAllJobStatuses() map[string]*JobStatus
}

// SearchOptions carries request-level search parameters.
type SearchOptions struct {
	Limit  int
	Offset int
}

// SearchService parses free-text queries and runs them against the index.
type SearchService interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]*models.SearchEntry, error)
}

// FetchService runs the per-symbol news collection cycle.
type FetchService interface {
	// Run executes one fetch cycle across the configured symbols.
	Run(ctx context.Context) (*models.FetchReport, error)

	// Enabled reports whether fetching is globally enabled.
	Enabled() bool

	// SetEnabled toggles the global fetch flag.
	SetEnabled(enabled bool)
}

// ProcessingService runs the AI enrichment and index sync cycle.
type ProcessingService interface {
	// Run processes one batch of unenriched articles, then syncs the index.
	Run(ctx context.Context) (*models.SyncReport, error)
}
