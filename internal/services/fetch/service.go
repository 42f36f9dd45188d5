// Package fetch implements the scheduled news collection cycle: for each
// configured symbol it calls the vendor, dedupes against known articles,
// and stores new ones in the buffer for AI processing.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/newsdesk/internal/common"
	"github.com/ternarybob/newsdesk/internal/interfaces"
	"github.com/ternarybob/newsdesk/internal/models"
)

// Service implements interfaces.FetchService.
type Service struct {
	config   *common.FetchConfig
	vendor   interfaces.NewsVendor
	articles interfaces.ArticleStorage
	ledger   interfaces.FetchLedger
	logger   arbor.ILogger

	mu      sync.RWMutex
	enabled bool
}

// NewService creates a fetch service. The enabled flag starts from the
// configured value and can be toggled at runtime.
func NewService(
	config *common.FetchConfig,
	vendor interfaces.NewsVendor,
	articles interfaces.ArticleStorage,
	ledger interfaces.FetchLedger,
	logger arbor.ILogger,
) *Service {
	return &Service{
		config:   config,
		vendor:   vendor,
		articles: articles,
		ledger:   ledger,
		logger:   logger,
		enabled:  config.Enabled,
	}
}

// Enabled reports whether fetching is globally enabled.
func (s *Service) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// SetEnabled toggles the global fetch flag. A disabled service turns Run
// into a no-op; in-flight runs are not interrupted.
func (s *Service) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()

	s.logger.Info().Bool("enabled", enabled).Msg("Fetch flag updated")
}

// Run executes one fetch cycle across the configured symbols.
func (s *Service) Run(ctx context.Context) (*models.FetchReport, error) {
	report := &models.FetchReport{StartedAt: time.Now()}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	if !s.Enabled() {
		s.logger.Debug().Msg("Fetch disabled, skipping run")
		return report, nil
	}

	if len(s.config.Symbols) == 0 {
		s.logger.Warn().Msg("No symbols configured for fetching")
		return report, nil
	}

	day := time.Now().UTC()
	delay := s.config.SymbolDelayDuration()

	for i, raw := range s.config.Symbols {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		ticker := common.ParseTicker(raw)
		if ticker.Code == "" {
			s.logger.Warn().Str("symbol", raw).Msg("Skipping unparseable symbol")
			continue
		}
		symbol := ticker.String()
		report.Symbols++

		// Throttle on the daily ledger before spending a vendor call
		counts, err := s.ledger.Counts(ctx, symbol, day)
		if err != nil {
			s.logger.Warn().Str("symbol", symbol).Err(err).Msg("Ledger unavailable, proceeding without throttle")
		} else if s.config.DailyLimit > 0 && counts.Attempts >= s.config.DailyLimit {
			s.logger.Info().
				Str("symbol", symbol).
				Int("attempts", counts.Attempts).
				Int("limit", s.config.DailyLimit).
				Msg("Daily fetch limit reached, skipping symbol")
			report.Throttled++
			continue
		}

		if _, err := s.ledger.RecordAttempt(ctx, symbol, day); err != nil {
			s.logger.Warn().Str("symbol", symbol).Err(err).Msg("Failed to record fetch attempt")
		}

		stored, duplicates, err := s.fetchSymbol(ctx, ticker)
		if err != nil {
			report.Failed++
			if lerr := s.ledger.RecordFailure(ctx, symbol, day); lerr != nil {
				s.logger.Warn().Str("symbol", symbol).Err(lerr).Msg("Failed to record fetch failure")
			}
			s.logger.Error().Str("symbol", symbol).Err(err).Msg("Symbol fetch failed")
		} else {
			report.Succeeded++
			report.Articles += stored
			report.Duplicate += duplicates
			if lerr := s.ledger.RecordSuccess(ctx, symbol, day); lerr != nil {
				s.logger.Warn().Str("symbol", symbol).Err(lerr).Msg("Failed to record fetch success")
			}
		}

		// Space out vendor calls between symbols
		if delay > 0 && i < len(s.config.Symbols)-1 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	s.logger.Info().
		Int("symbols", report.Symbols).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Int("throttled", report.Throttled).
		Int("articles", report.Articles).
		Int("duplicates", report.Duplicate).
		Dur("duration", time.Since(report.StartedAt)).
		Msg("Fetch cycle completed")

	return report, nil
}

// fetchSymbol retrieves and stores articles for one symbol, retrying the
// vendor call with exponential backoff. Returns stored and duplicate counts.
func (s *Service) fetchSymbol(ctx context.Context, ticker common.Ticker) (int, int, error) {
	limit := s.config.ArticlesPerFetch
	if limit <= 0 {
		limit = 5
	}

	var items []interfaces.VendorArticle
	var err error

	maxRetries := s.config.MaxRetries
	for attempt := 0; attempt <= maxRetries; attempt++ {
		items, err = s.vendor.FetchNews(ctx, ticker.VendorSymbol(), limit)
		if err == nil {
			break
		}
		if attempt == maxRetries {
			return 0, 0, fmt.Errorf("vendor fetch failed after %d retries: %w", maxRetries, err)
		}

		backoff := time.Duration(1<<attempt) * 2 * time.Second
		s.logger.Warn().
			Str("symbol", ticker.String()).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(err).
			Msg("Retrying vendor fetch")

		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		case <-time.After(backoff):
		}
	}

	stored, duplicates := 0, 0
	for _, item := range items {
		if item.ExternalID == "" || item.Title == "" {
			continue
		}

		known, err := s.articles.HasExternalID(ctx, item.ExternalID)
		if err != nil {
			return stored, duplicates, err
		}
		if known {
			duplicates++
			continue
		}

		article := s.toArticle(ticker, item)
		if err := s.articles.SaveArticle(ctx, article); err != nil {
			if errors.Is(err, interfaces.ErrDuplicateArticle) {
				duplicates++
				continue
			}
			return stored, duplicates, err
		}
		stored++
	}

	return stored, duplicates, nil
}

// toArticle converts a vendor article to the buffer model, normalizing all
// symbols to exchange-qualified form. The fetched ticker is always included.
func (s *Service) toArticle(ticker common.Ticker, item interfaces.VendorArticle) *models.Article {
	symbols := []string{ticker.String()}
	seen := map[string]bool{ticker.String(): true}
	for _, raw := range item.Symbols {
		t := common.ParseVendorSymbol(raw)
		if t.Code == "" {
			continue
		}
		if !seen[t.String()] {
			seen[t.String()] = true
			symbols = append(symbols, t.String())
		}
	}

	publishedAt := item.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now()
	}

	return &models.Article{
		ID:          common.NewArticleID(),
		ExternalID:  item.ExternalID,
		Title:       item.Title,
		Content:     item.Content,
		URL:         item.URL,
		Source:      sourceFromURL(item.URL),
		Symbols:     symbols,
		PublishedAt: publishedAt,
	}
}

// sourceFromURL extracts the publisher hostname from an article URL.
func sourceFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
