package models

import (
	"time"
)

// Sentiment rating bounds. Ratings outside this range are clamped on write.
const (
	SentimentMin = -100
	SentimentMax = 100
)

// Article is a buffered news article awaiting AI processing.
// Rows live in the news_articles table until summary, insights, and
// sentiment are populated, then move to the search index.
type Article struct {
	ID          string
	ExternalID  string // Vendor-stable identifier (dedupe key)
	Title       string
	Content     string
	URL         string
	Source      string
	Symbols     []string // Exchange-qualified tickers (e.g., "ASX:CBA")
	PublishedAt time.Time

	// AI fields, nil until processed
	Summary   *string
	Insights  *string
	Sentiment *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AIComplete reports whether all AI fields are populated.
func (a *Article) AIComplete() bool {
	return a.Summary != nil && a.Insights != nil && a.Sentiment != nil
}

// SearchEntry is a denormalized, immutable copy of an AI-processed article
// in the news_search_index table. Searches run against this table only.
type SearchEntry struct {
	ID          string
	ExternalID  string
	Title       string
	Summary     string
	Insights    string
	Sentiment   int
	Symbols     []string
	Source      string
	URL         string
	PublishedAt time.Time
	IndexedAt   time.Time
}

// SyncReport summarizes one buffer-to-index sync transaction.
type SyncReport struct {
	Eligible int // AI-complete buffer rows considered
	Indexed  int // Rows inserted into the search index
	Deleted  int // Buffer rows removed after verification
	Skipped  int // Rows already present in the index (idempotent re-run)
}

// FetchReport summarizes one fetch scheduler run.
type FetchReport struct {
	Symbols   int // Symbols attempted
	Succeeded int // Symbols with at least one successful vendor call
	Failed    int // Symbols that exhausted retries
	Throttled int // Symbols skipped by the daily ledger limit
	Articles  int // New articles stored (after dedupe)
	Duplicate int // Articles skipped as already known
	StartedAt time.Time
	Duration  time.Duration
}

// FetchCounts holds the per-symbol per-day ledger counters.
type FetchCounts struct {
	Attempts  int
	Successes int
	Failures  int
}
