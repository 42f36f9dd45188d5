package search

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/newsdesk/internal/common"
	"github.com/ternarybob/newsdesk/internal/interfaces"
	"github.com/ternarybob/newsdesk/internal/models"
)

// Service implements interfaces.SearchService.
type Service struct {
	config *common.SearchConfig
	index  interfaces.SearchIndexStorage
	logger arbor.ILogger
}

// NewService creates a search service.
func NewService(config *common.SearchConfig, index interfaces.SearchIndexStorage, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		index:  index,
		logger: logger,
	}
}

// Search parses a free-text query and runs it against the search index.
// An empty query returns the most recent entries.
func (s *Service) Search(ctx context.Context, query string, opts interfaces.SearchOptions) ([]*models.SearchEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if s.config.MaxLimit > 0 && limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	parsed := ParseQuery(query)
	filter := parsed.Filter(limit, offset)

	entries, err := s.index.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	s.logger.Debug().
		Str("query", query).
		Int("symbols", len(parsed.Symbols)).
		Int("keywords", len(parsed.Keywords)).
		Int("results", len(entries)).
		Msg("Search executed")

	return entries, nil
}
