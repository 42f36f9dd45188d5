// Package ai implements the scheduled enrichment cycle: unprocessed buffer
// articles get an LLM-generated summary, insights, and sentiment rating,
// then completed articles are moved into the search index.
package ai

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/newsdesk/internal/common"
	"github.com/ternarybob/newsdesk/internal/interfaces"
	"github.com/ternarybob/newsdesk/internal/models"
	"github.com/ternarybob/newsdesk/internal/services/llm"
)

const (
	summarySystem = "You are a financial news analyst. Summarize articles concisely for investors. Respond with the summary only, no preamble."

	insightsSystem = "You are a financial news analyst. Identify the key market implications of articles for the companies mentioned. Respond with 2-4 short bullet points, no preamble."

	sentimentSystem = "You are a financial news analyst. Rate the sentiment of articles for the companies mentioned on an integer scale from -100 (extremely negative) to 100 (extremely positive), where 0 is neutral. Respond with a single integer only."

	// maxContentChars caps the article text sent per prompt to keep token
	// usage predictable for long wire stories.
	maxContentChars = 12000
)

// ContentGenerator is the slice of the LLM provider the service needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, request *llm.ContentRequest) (*llm.ContentResponse, error)
}

// Service implements interfaces.ProcessingService.
type Service struct {
	config    *common.AIConfig
	articles  interfaces.ArticleStorage
	index     interfaces.SearchIndexStorage
	generator ContentGenerator
	logger    arbor.ILogger
}

// NewService creates an AI processing service.
func NewService(
	config *common.AIConfig,
	articles interfaces.ArticleStorage,
	index interfaces.SearchIndexStorage,
	generator ContentGenerator,
	logger arbor.ILogger,
) *Service {
	return &Service{
		config:    config,
		articles:  articles,
		index:     index,
		generator: generator,
		logger:    logger,
	}
}

// Run processes one batch of unenriched articles, then syncs completed
// articles into the search index. A failure on one article skips it for
// this run without blocking the rest of the batch.
func (s *Service) Run(ctx context.Context) (*models.SyncReport, error) {
	batchSize := s.config.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	articles, err := s.articles.ListUnprocessed(ctx, batchSize, s.config.MinContentLength)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed articles: %w", err)
	}

	processed, failed := 0, 0
	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := s.processArticle(ctx, article); err != nil {
			failed++
			s.logger.Error().
				Str("article_id", article.ID).
				Str("title", article.Title).
				Err(err).
				Msg("Article enrichment failed")
			continue
		}
		processed++
	}

	report, err := s.index.SyncFromBuffer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sync search index: %w", err)
	}

	if len(articles) > 0 {
		s.logger.Info().
			Int("batch", len(articles)).
			Int("processed", processed).
			Int("failed", failed).
			Int("indexed", report.Indexed).
			Msg("AI processing cycle completed")
	}
	return report, nil
}

// processArticle generates all three AI fields and persists them together.
// Fields are only written once all three calls succeed, so a partially
// enriched article stays eligible for the next run.
func (s *Service) processArticle(ctx context.Context, article *models.Article) error {
	prompt := buildPrompt(article)

	summary, err := s.generate(ctx, summarySystem, prompt)
	if err != nil {
		return fmt.Errorf("summary generation: %w", err)
	}

	insights, err := s.generate(ctx, insightsSystem, prompt)
	if err != nil {
		return fmt.Errorf("insights generation: %w", err)
	}

	sentimentText, err := s.generate(ctx, sentimentSystem, prompt)
	if err != nil {
		return fmt.Errorf("sentiment generation: %w", err)
	}
	sentiment := ParseSentiment(sentimentText)

	if err := s.articles.UpdateAIFields(ctx, article.ID, summary, insights, sentiment); err != nil {
		return fmt.Errorf("persisting AI fields: %w", err)
	}

	s.logger.Debug().
		Str("article_id", article.ID).
		Int("sentiment", sentiment).
		Msg("Article enriched")
	return nil
}

func (s *Service) generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := s.generator.GenerateContent(ctx, &llm.ContentRequest{
		SystemInstruction: system,
		Messages: []interfaces.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// buildPrompt assembles the article text sent to the model.
func buildPrompt(article *models.Article) string {
	content := truncateContent(article.Content, maxContentChars)

	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(article.Title)
	if len(article.Symbols) > 0 {
		b.WriteString("\nCompanies: ")
		b.WriteString(strings.Join(article.Symbols, ", "))
	}
	b.WriteString("\n\n")
	b.WriteString(content)
	return b.String()
}

// truncateContent caps content at max bytes without splitting a multi-byte
// rune, so truncated prompts stay valid UTF-8.
func truncateContent(content string, max int) string {
	if len(content) <= max {
		return content
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}
