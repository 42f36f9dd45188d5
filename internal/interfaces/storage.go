package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/newsdesk/internal/models"
)

// ArticleStorage manages the news_articles buffer table.
type ArticleStorage interface {
	// SaveArticle inserts a new article. Returns ErrDuplicateArticle if an
	// article with the same external ID already exists in the buffer.
	SaveArticle(ctx context.Context, article *models.Article) error

	// GetArticle retrieves an article by ID.
	GetArticle(ctx context.Context, id string) (*models.Article, error)

	// UpdateAIFields persists the AI enrichment for a single article.
	UpdateAIFields(ctx context.Context, id string, summary, insights string, sentiment int) error

	// ListUnprocessed returns up to limit articles missing at least one AI
	// field and with content of at least minContentLen characters, oldest
	// first.
	ListUnprocessed(ctx context.Context, limit, minContentLen int) ([]*models.Article, error)

	// ListArticles returns buffer articles, newest published first.
	ListArticles(ctx context.Context, limit, offset int) ([]*models.Article, error)

	// HasExternalID reports whether the external ID exists in either the
	// buffer or the search index.
	HasExternalID(ctx context.Context, externalID string) (bool, error)

	// CountArticles returns total and AI-complete buffer row counts.
	CountArticles(ctx context.Context) (total, aiComplete int, err error)
}

// SearchIndexStorage manages the news_search_index table.
type SearchIndexStorage interface {
	// SyncFromBuffer moves all AI-complete buffer rows into the search index
	// in a single transaction: insert (idempotent on external_id), verify,
	// delete. An article is never present in both tables after commit.
	SyncFromBuffer(ctx context.Context) (*models.SyncReport, error)

	// Search runs the assembled filter set against the index.
	Search(ctx context.Context, filter *SearchFilter) ([]*models.SearchEntry, error)

	// GetEntryByExternalID retrieves an index entry by external ID.
	GetEntryByExternalID(ctx context.Context, externalID string) (*models.SearchEntry, error)

	// CountEntries returns the number of index rows.
	CountEntries(ctx context.Context) (int, error)
}

// SearchFilter is the storage-level representation of a parsed query.
// Symbol and keyword terms are OR-ed within their group and AND-ed across
// groups; the remaining fields are optional range/equality filters.
type SearchFilter struct {
	Symbols  []string // Exchange-qualified symbol membership (JSON LIKE)
	Keywords []string // LIKE terms over title/summary/insights

	Source       string
	MinSentiment *int
	MaxSentiment *int
	Since        *time.Time
	Until        *time.Time

	// OrderBy is "published_at" (default) or "sentiment"; descending.
	OrderBy string
	Limit   int
	Offset  int
}

// FetchLedger tracks per-symbol per-day fetch outcomes, used to throttle
// repeat fetching. Entries expire on their own (TTL-based).
type FetchLedger interface {
	// RecordAttempt increments the attempt counter and returns the new count.
	RecordAttempt(ctx context.Context, symbol string, day time.Time) (int, error)

	// RecordSuccess increments the success counter.
	RecordSuccess(ctx context.Context, symbol string, day time.Time) error

	// RecordFailure increments the failure counter.
	RecordFailure(ctx context.Context, symbol string, day time.Time) error

	// Counts returns the counters for a symbol on a given day.
	Counts(ctx context.Context, symbol string, day time.Time) (*models.FetchCounts, error)

	// Ping verifies the ledger backend is reachable.
	Ping(ctx context.Context) error
}
