package sqlite

const schemaSQL = `
-- Article buffer
-- Holds fetched articles until AI processing completes, then rows move to
-- the search index and are removed from here.
CREATE TABLE IF NOT EXISTS news_articles (
	id TEXT PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	url TEXT NOT NULL,
	source TEXT NOT NULL,
	symbols TEXT NOT NULL,
	published_at INTEGER NOT NULL,
	summary TEXT,
	insights TEXT,
	sentiment INTEGER,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_articles_published ON news_articles(published_at DESC);
CREATE INDEX IF NOT EXISTS idx_articles_unprocessed ON news_articles(created_at) WHERE summary IS NULL OR insights IS NULL OR sentiment IS NULL;

-- Search index
-- Immutable denormalized copies of processed articles. Searches run against
-- this table only; the buffer is never searched.
CREATE TABLE IF NOT EXISTS news_search_index (
	id TEXT PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	summary TEXT NOT NULL,
	insights TEXT NOT NULL,
	sentiment INTEGER NOT NULL,
	symbols TEXT NOT NULL,
	source TEXT NOT NULL,
	url TEXT NOT NULL,
	published_at INTEGER NOT NULL,
	indexed_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_published ON news_search_index(published_at DESC);
CREATE INDEX IF NOT EXISTS idx_search_sentiment ON news_search_index(sentiment DESC);
CREATE INDEX IF NOT EXISTS idx_search_source ON news_search_index(source);

-- Scheduler job settings, persisted across restarts
CREATE TABLE IF NOT EXISTS job_settings (
	name TEXT PRIMARY KEY,
	enabled INTEGER NOT NULL DEFAULT 1,
	schedule TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// InitSchema initializes the database schema
func (s *SQLiteDB) InitSchema() error {
	_, err := s.db.Exec(schemaSQL)
	if err != nil {
		return err
	}
	s.logger.Info().Msg("Database schema initialized")
	return nil
}
