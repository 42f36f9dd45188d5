package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/newsdesk/internal/common"
	"github.com/ternarybob/newsdesk/internal/interfaces"
	"github.com/ternarybob/newsdesk/internal/models"
	"github.com/ternarybob/newsdesk/internal/services/llm"
	"github.com/ternarybob/newsdesk/internal/storage/sqlite"
)

// mockGenerator answers by system prompt so each AI field gets a distinct
// canned response. failTitles lists article titles whose prompts should fail.
type mockGenerator struct {
	sentiment  string
	failTitles []string
	calls      int
}

func (m *mockGenerator) GenerateContent(ctx context.Context, request *llm.ContentRequest) (*llm.ContentResponse, error) {
	m.calls++
	prompt := ""
	if len(request.Messages) > 0 {
		prompt = request.Messages[0].Content
	}
	for _, title := range m.failTitles {
		if strings.Contains(prompt, title) {
			return nil, errors.New("model overloaded")
		}
	}

	var text string
	switch {
	case strings.Contains(request.SystemInstruction, "Summarize"):
		text = "generated summary"
	case strings.Contains(request.SystemInstruction, "implications"):
		text = "generated insights"
	default:
		text = m.sentiment
	}
	return &llm.ContentResponse{Text: text, Provider: "claude"}, nil
}

func newTestStorages(t *testing.T) (*sqlite.ArticleStorage, *sqlite.SearchStorage) {
	t.Helper()
	db, err := sqlite.NewMemoryDB(arbor.NewLogger())
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlite.NewArticleStorage(db, arbor.NewLogger()), sqlite.NewSearchStorage(db, arbor.NewLogger())
}

func seedArticle(t *testing.T, articles *sqlite.ArticleStorage, id, title string) {
	t.Helper()
	err := articles.SaveArticle(context.Background(), &models.Article{
		ID:          id,
		ExternalID:  "ext_" + id,
		Title:       title,
		Content:     strings.Repeat("Market commentary for "+title+". ", 10),
		URL:         "https://example.com/" + id,
		Source:      "example.com",
		Symbols:     []string{"ASX:CBA"},
		PublishedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("SaveArticle(%s) failed: %v", id, err)
	}
}

func testAIConfig() *common.AIConfig {
	return &common.AIConfig{
		Enabled:          true,
		BatchSize:        10,
		MinContentLength: 100,
	}
}

func TestRunEnrichesAndSyncs(t *testing.T) {
	articles, index := newTestStorages(t)
	generator := &mockGenerator{sentiment: "35"}
	svc := NewService(testAIConfig(), articles, index, generator, arbor.NewLogger())
	ctx := context.Background()

	seedArticle(t, articles, "art_1", "CBA profit")
	seedArticle(t, articles, "art_2", "BHP iron ore")

	report, err := svc.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Indexed != 2 || report.Deleted != 2 {
		t.Errorf("report = %+v", report)
	}
	// Three generations per article
	if generator.calls != 6 {
		t.Errorf("generator calls = %d, want 6", generator.calls)
	}

	entry, err := index.GetEntryByExternalID(ctx, "ext_art_1")
	if err != nil {
		t.Fatalf("GetEntryByExternalID failed: %v", err)
	}
	if entry.Summary != "generated summary" || entry.Insights != "generated insights" || entry.Sentiment != 35 {
		t.Errorf("entry = %+v", entry)
	}

	total, _, _ := articles.CountArticles(ctx)
	if total != 0 {
		t.Errorf("buffer still holds %d articles after sync", total)
	}
}

func TestRunParsesSentimentFromProse(t *testing.T) {
	articles, index := newTestStorages(t)
	generator := &mockGenerator{sentiment: "The rating is -40 overall."}
	svc := NewService(testAIConfig(), articles, index, generator, arbor.NewLogger())
	ctx := context.Background()

	seedArticle(t, articles, "art_1", "Profit warning")

	if _, err := svc.Run(ctx); err != nil {
		t.Fatal(err)
	}

	entry, err := index.GetEntryByExternalID(ctx, "ext_art_1")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Sentiment != -40 {
		t.Errorf("Sentiment = %d, want -40", entry.Sentiment)
	}
}

func TestRunNeutralOnUnparseableSentiment(t *testing.T) {
	articles, index := newTestStorages(t)
	generator := &mockGenerator{sentiment: "cautiously optimistic"}
	svc := NewService(testAIConfig(), articles, index, generator, arbor.NewLogger())
	ctx := context.Background()

	seedArticle(t, articles, "art_1", "Mixed outlook")

	if _, err := svc.Run(ctx); err != nil {
		t.Fatal(err)
	}

	entry, err := index.GetEntryByExternalID(ctx, "ext_art_1")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Sentiment != 0 {
		t.Errorf("Sentiment = %d, want neutral 0", entry.Sentiment)
	}
}

func TestRunSkipsFailedArticle(t *testing.T) {
	articles, index := newTestStorages(t)
	generator := &mockGenerator{sentiment: "10", failTitles: []string{"Bad article"}}
	svc := NewService(testAIConfig(), articles, index, generator, arbor.NewLogger())
	ctx := context.Background()

	seedArticle(t, articles, "art_1", "Bad article")
	seedArticle(t, articles, "art_2", "Good article")

	report, err := svc.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Indexed != 1 {
		t.Errorf("report = %+v, want 1 indexed", report)
	}

	// Failed article stays in the buffer, unenriched, for the next run
	remaining, err := articles.GetArticle(ctx, "art_1")
	if err != nil {
		t.Fatalf("failed article missing from buffer: %v", err)
	}
	if remaining.AIComplete() {
		t.Error("failed article should not carry AI fields")
	}
	if _, err := index.GetEntryByExternalID(ctx, "ext_art_1"); err != interfaces.ErrNotFound {
		t.Errorf("failed article leaked into index: %v", err)
	}
}

func TestTruncateContent(t *testing.T) {
	// "é" is two bytes; a byte-index cut at 5 would split it
	content := "abcdéfgh"

	tests := []struct {
		name string
		max  int
		want string
	}{
		{"no truncation", 100, content},
		{"cut lands mid-rune", 5, "abcd"},
		{"cut after rune", 6, "abcdé"},
		{"cut before rune", 4, "abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateContent(content, tt.max)
			if got != tt.want {
				t.Errorf("truncateContent(%q, %d) = %q, want %q", content, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncated content is not valid UTF-8: %q", got)
			}
		})
	}
}

func TestRunEmptyBatch(t *testing.T) {
	articles, index := newTestStorages(t)
	generator := &mockGenerator{sentiment: "0"}
	svc := NewService(testAIConfig(), articles, index, generator, arbor.NewLogger())

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Eligible != 0 || generator.calls != 0 {
		t.Errorf("empty run did work: report=%+v calls=%d", report, generator.calls)
	}
}
