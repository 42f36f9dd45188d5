package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/newsdesk/internal/interfaces"
	"github.com/ternarybob/newsdesk/internal/models"
)

// ArticleStorage implements interfaces.ArticleStorage over the
// news_articles buffer table.
type ArticleStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewArticleStorage creates article storage backed by the given database.
func NewArticleStorage(db *SQLiteDB, logger arbor.ILogger) *ArticleStorage {
	return &ArticleStorage{db: db, logger: logger}
}

// SaveArticle inserts a new article into the buffer.
func (s *ArticleStorage) SaveArticle(ctx context.Context, article *models.Article) error {
	symbols, err := marshalSymbols(article.Symbols)
	if err != nil {
		return fmt.Errorf("failed to marshal symbols: %w", err)
	}

	now := time.Now()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	article.UpdatedAt = now

	_, err = s.db.DB().ExecContext(ctx, `
		INSERT INTO news_articles (id, external_id, title, content, url, source, symbols, published_at, summary, insights, sentiment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		article.ID, article.ExternalID, article.Title, article.Content, article.URL,
		article.Source, symbols, article.PublishedAt.Unix(),
		article.Summary, article.Insights, article.Sentiment,
		article.CreatedAt.Unix(), article.UpdatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return interfaces.ErrDuplicateArticle
		}
		return fmt.Errorf("failed to save article: %w", err)
	}

	return nil
}

// GetArticle retrieves a buffer article by ID.
func (s *ArticleStorage) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	row := s.db.DB().QueryRowContext(ctx, `
		SELECT id, external_id, title, content, url, source, symbols, published_at, summary, insights, sentiment, created_at, updated_at
		FROM news_articles WHERE id = ?`, id)
	return scanArticle(row)
}

// UpdateAIFields persists the AI enrichment for a single article. The
// sentiment is clamped to the valid rating range on write.
func (s *ArticleStorage) UpdateAIFields(ctx context.Context, id string, summary, insights string, sentiment int) error {
	if sentiment < models.SentimentMin {
		sentiment = models.SentimentMin
	}
	if sentiment > models.SentimentMax {
		sentiment = models.SentimentMax
	}

	result, err := s.db.DB().ExecContext(ctx, `
		UPDATE news_articles
		SET summary = ?, insights = ?, sentiment = ?, updated_at = ?
		WHERE id = ?`,
		summary, insights, sentiment, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update AI fields: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

// ListUnprocessed returns up to limit articles missing at least one AI field,
// with content long enough to be worth processing, oldest first.
func (s *ArticleStorage) ListUnprocessed(ctx context.Context, limit, minContentLen int) ([]*models.Article, error) {
	rows, err := s.db.DB().QueryContext(ctx, `
		SELECT id, external_id, title, content, url, source, symbols, published_at, summary, insights, sentiment, created_at, updated_at
		FROM news_articles
		WHERE (summary IS NULL OR insights IS NULL OR sentiment IS NULL)
		  AND length(content) >= ?
		ORDER BY created_at ASC
		LIMIT ?`, minContentLen, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// ListArticles returns buffer articles, newest published first.
func (s *ArticleStorage) ListArticles(ctx context.Context, limit, offset int) ([]*models.Article, error) {
	rows, err := s.db.DB().QueryContext(ctx, `
		SELECT id, external_id, title, content, url, source, symbols, published_at, summary, insights, sentiment, created_at, updated_at
		FROM news_articles
		ORDER BY published_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// HasExternalID reports whether the external ID exists in either the buffer
// or the search index.
func (s *ArticleStorage) HasExternalID(ctx context.Context, externalID string) (bool, error) {
	var count int
	err := s.db.DB().QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM news_articles WHERE external_id = ?)
		     + (SELECT COUNT(*) FROM news_search_index WHERE external_id = ?)`,
		externalID, externalID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check external ID: %w", err)
	}
	return count > 0, nil
}

// CountArticles returns total and AI-complete buffer row counts.
func (s *ArticleStorage) CountArticles(ctx context.Context) (total, aiComplete int, err error) {
	err = s.db.DB().QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(CASE WHEN summary IS NOT NULL AND insights IS NOT NULL AND sentiment IS NOT NULL THEN 1 END)
		FROM news_articles`).Scan(&total, &aiComplete)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return total, aiComplete, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var a models.Article
	var symbols string
	var publishedAt, createdAt, updatedAt int64

	err := row.Scan(&a.ID, &a.ExternalID, &a.Title, &a.Content, &a.URL, &a.Source,
		&symbols, &publishedAt, &a.Summary, &a.Insights, &a.Sentiment, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}

	a.Symbols, err = unmarshalSymbols(symbols)
	if err != nil {
		return nil, err
	}
	a.PublishedAt = time.Unix(publishedAt, 0)
	a.CreatedAt = time.Unix(createdAt, 0)
	a.UpdatedAt = time.Unix(updatedAt, 0)
	return &a, nil
}

func scanArticles(rows *sql.Rows) ([]*models.Article, error) {
	var articles []*models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func marshalSymbols(symbols []string) (string, error) {
	if symbols == nil {
		symbols = []string{}
	}
	data, err := json.Marshal(symbols)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalSymbols(data string) ([]string, error) {
	if data == "" {
		return nil, nil
	}
	var symbols []string
	if err := json.Unmarshal([]byte(data), &symbols); err != nil {
		return nil, fmt.Errorf("failed to unmarshal symbols: %w", err)
	}
	return symbols, nil
}

// isUniqueViolation detects SQLite unique constraint errors without binding
// to driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
