package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/newsdesk/internal/common"
	"github.com/ternarybob/newsdesk/internal/interfaces"
	"github.com/ternarybob/newsdesk/internal/models"
)

// SearchStorage implements interfaces.SearchIndexStorage over the
// news_search_index table.
type SearchStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewSearchStorage creates search index storage backed by the given database.
func NewSearchStorage(db *SQLiteDB, logger arbor.ILogger) *SearchStorage {
	return &SearchStorage{db: db, logger: logger}
}

// SyncFromBuffer moves all AI-complete buffer rows into the search index in
// a single transaction. Each eligible row is inserted (skipped if its
// external ID is already indexed), the copy is verified, and only then is
// the buffer row deleted. On any error the transaction rolls back, so an
// article is never present in both tables and never lost.
func (s *SearchStorage) SyncFromBuffer(ctx context.Context) (*models.SyncReport, error) {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin sync transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, external_id, title, summary, insights, sentiment, symbols, source, url, published_at
		FROM news_articles
		WHERE summary IS NOT NULL AND insights IS NOT NULL AND sentiment IS NOT NULL
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible articles: %w", err)
	}

	type eligible struct {
		id          string
		externalID  string
		title       string
		summary     string
		insights    string
		sentiment   int
		symbols     string
		source      string
		url         string
		publishedAt int64
	}

	var candidates []eligible
	for rows.Next() {
		var e eligible
		if err := rows.Scan(&e.id, &e.externalID, &e.title, &e.summary, &e.insights,
			&e.sentiment, &e.symbols, &e.source, &e.url, &e.publishedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan eligible article: %w", err)
		}
		candidates = append(candidates, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	report := &models.SyncReport{Eligible: len(candidates)}
	now := time.Now().Unix()

	for _, e := range candidates {
		// Idempotent on external_id: a re-run after a partial earlier
		// failure must not duplicate index entries.
		var existing int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM news_search_index WHERE external_id = ?`,
			e.externalID).Scan(&existing); err != nil {
			return nil, fmt.Errorf("failed to check index for %s: %w", e.externalID, err)
		}

		if existing == 0 {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO news_search_index (id, external_id, title, summary, insights, sentiment, symbols, source, url, published_at, indexed_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				common.NewIndexEntryID(), e.externalID, e.title, e.summary, e.insights,
				e.sentiment, e.symbols, e.source, e.url, e.publishedAt, now); err != nil {
				return nil, fmt.Errorf("failed to index article %s: %w", e.externalID, err)
			}
			report.Indexed++
		} else {
			report.Skipped++
		}

		// Verify the index row exists before removing the buffer row
		var verified int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM news_search_index WHERE external_id = ?`,
			e.externalID).Scan(&verified); err != nil {
			return nil, fmt.Errorf("failed to verify index entry %s: %w", e.externalID, err)
		}
		if verified == 0 {
			return nil, fmt.Errorf("index entry %s missing after insert", e.externalID)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM news_articles WHERE id = ?`, e.id); err != nil {
			return nil, fmt.Errorf("failed to remove buffered article %s: %w", e.id, err)
		}
		report.Deleted++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sync transaction: %w", err)
	}

	if report.Eligible > 0 && s.logger != nil {
		s.logger.Info().
			Int("eligible", report.Eligible).
			Int("indexed", report.Indexed).
			Int("skipped", report.Skipped).
			Msg("Search index sync completed")
	}
	return report, nil
}

// Search runs the assembled filter set against the index. Symbol and keyword
// terms are OR-ed within their group; groups and the scalar filters are
// AND-ed together.
func (s *SearchStorage) Search(ctx context.Context, filter *interfaces.SearchFilter) ([]*models.SearchEntry, error) {
	var conditions []string
	var args []interface{}

	if len(filter.Symbols) > 0 {
		var symbolConds []string
		for _, sym := range filter.Symbols {
			// Symbols column is a JSON array of quoted strings
			symbolConds = append(symbolConds, "symbols LIKE ?")
			args = append(args, `%"`+sym+`"%`)
		}
		conditions = append(conditions, "("+strings.Join(symbolConds, " OR ")+")")
	}

	if len(filter.Keywords) > 0 {
		var keywordConds []string
		for _, kw := range filter.Keywords {
			keywordConds = append(keywordConds, "(title LIKE ? OR summary LIKE ? OR insights LIKE ?)")
			pattern := "%" + kw + "%"
			args = append(args, pattern, pattern, pattern)
		}
		conditions = append(conditions, "("+strings.Join(keywordConds, " OR ")+")")
	}

	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}
	if filter.MinSentiment != nil {
		conditions = append(conditions, "sentiment >= ?")
		args = append(args, *filter.MinSentiment)
	}
	if filter.MaxSentiment != nil {
		conditions = append(conditions, "sentiment <= ?")
		args = append(args, *filter.MaxSentiment)
	}
	if filter.Since != nil {
		conditions = append(conditions, "published_at >= ?")
		args = append(args, filter.Since.Unix())
	}
	if filter.Until != nil {
		conditions = append(conditions, "published_at <= ?")
		args = append(args, filter.Until.Unix())
	}

	query := `SELECT id, external_id, title, summary, insights, sentiment, symbols, source, url, published_at, indexed_at
		FROM news_search_index`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	orderBy := "published_at"
	if filter.OrderBy == "sentiment" {
		orderBy = "sentiment"
	}
	query += fmt.Sprintf(" ORDER BY %s DESC", orderBy)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer rows.Close()

	return scanSearchEntries(rows)
}

// GetEntryByExternalID retrieves an index entry by external ID.
func (s *SearchStorage) GetEntryByExternalID(ctx context.Context, externalID string) (*models.SearchEntry, error) {
	row := s.db.DB().QueryRowContext(ctx, `
		SELECT id, external_id, title, summary, insights, sentiment, symbols, source, url, published_at, indexed_at
		FROM news_search_index WHERE external_id = ?`, externalID)
	return scanSearchEntry(row)
}

// CountEntries returns the number of index rows.
func (s *SearchStorage) CountEntries(ctx context.Context) (int, error) {
	var count int
	if err := s.db.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM news_search_index`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count index entries: %w", err)
	}
	return count, nil
}

func scanSearchEntry(row rowScanner) (*models.SearchEntry, error) {
	var e models.SearchEntry
	var symbols string
	var publishedAt, indexedAt int64

	err := row.Scan(&e.ID, &e.ExternalID, &e.Title, &e.Summary, &e.Insights,
		&e.Sentiment, &symbols, &e.Source, &e.URL, &publishedAt, &indexedAt)
	if err == sql.ErrNoRows {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan search entry: %w", err)
	}

	e.Symbols, err = unmarshalSymbols(symbols)
	if err != nil {
		return nil, err
	}
	e.PublishedAt = time.Unix(publishedAt, 0)
	e.IndexedAt = time.Unix(indexedAt, 0)
	return &e, nil
}

func scanSearchEntries(rows *sql.Rows) ([]*models.SearchEntry, error) {
	var entries []*models.SearchEntry
	for rows.Next() {
		e, err := scanSearchEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
