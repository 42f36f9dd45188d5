package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/newsdesk/internal/common"
	"github.com/ternarybob/newsdesk/internal/interfaces"
	"github.com/ternarybob/newsdesk/internal/models"
)

// mockVendor returns canned articles, optionally failing the first N calls.
type mockVendor struct {
	articles  []interfaces.VendorArticle
	failCount int
	calls     int
	symbols   []string
}

func (m *mockVendor) FetchNews(ctx context.Context, symbol string, limit int) ([]interfaces.VendorArticle, error) {
	m.calls++
	m.symbols = append(m.symbols, symbol)
	if m.calls <= m.failCount {
		return nil, errors.New("vendor unavailable")
	}
	return m.articles, nil
}

// mockArticleStorage records saved articles in memory.
type mockArticleStorage struct {
	saved    []*models.Article
	known    map[string]bool
	saveErr  error
	hasCalls int
}

func newMockArticleStorage() *mockArticleStorage {
	return &mockArticleStorage{known: map[string]bool{}}
}

func (m *mockArticleStorage) SaveArticle(ctx context.Context, article *models.Article) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.known[article.ExternalID] {
		return interfaces.ErrDuplicateArticle
	}
	m.known[article.ExternalID] = true
	m.saved = append(m.saved, article)
	return nil
}

func (m *mockArticleStorage) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	return nil, interfaces.ErrNotFound
}

func (m *mockArticleStorage) UpdateAIFields(ctx context.Context, id, summary, insights string, sentiment int) error {
	return nil
}

func (m *mockArticleStorage) ListUnprocessed(ctx context.Context, limit, minContentLen int) ([]*models.Article, error) {
	return nil, nil
}

func (m *mockArticleStorage) ListArticles(ctx context.Context, limit, offset int) ([]*models.Article, error) {
	return nil, nil
}

func (m *mockArticleStorage) HasExternalID(ctx context.Context, externalID string) (bool, error) {
	m.hasCalls++
	return m.known[externalID], nil
}

func (m *mockArticleStorage) CountArticles(ctx context.Context) (int, int, error) {
	return len(m.saved), 0, nil
}

// mockLedger keeps counters in memory, keyed by symbol only.
type mockLedger struct {
	counts map[string]*models.FetchCounts
}

func newMockLedger() *mockLedger {
	return &mockLedger{counts: map[string]*models.FetchCounts{}}
}

func (m *mockLedger) get(symbol string) *models.FetchCounts {
	c, ok := m.counts[symbol]
	if !ok {
		c = &models.FetchCounts{}
		m.counts[symbol] = c
	}
	return c
}

func (m *mockLedger) RecordAttempt(ctx context.Context, symbol string, day time.Time) (int, error) {
	c := m.get(symbol)
	c.Attempts++
	return c.Attempts, nil
}

func (m *mockLedger) RecordSuccess(ctx context.Context, symbol string, day time.Time) error {
	m.get(symbol).Successes++
	return nil
}

func (m *mockLedger) RecordFailure(ctx context.Context, symbol string, day time.Time) error {
	m.get(symbol).Failures++
	return nil
}

func (m *mockLedger) Counts(ctx context.Context, symbol string, day time.Time) (*models.FetchCounts, error) {
	c := m.get(symbol)
	out := *c
	return &out, nil
}

func (m *mockLedger) Ping(ctx context.Context) error { return nil }

func testConfig(symbols ...string) *common.FetchConfig {
	return &common.FetchConfig{
		Enabled:          true,
		Symbols:          symbols,
		ArticlesPerFetch: 5,
		MaxRetries:       0,
		DailyLimit:       6,
		SymbolDelay:      "0s",
	}
}

func vendorArticle(externalID, title string) interfaces.VendorArticle {
	return interfaces.VendorArticle{
		ExternalID:  externalID,
		Title:       title,
		Content:     "article body",
		URL:         "https://www.afr.com/markets/" + externalID,
		Symbols:     []string{"CBA.AU"},
		PublishedAt: time.Date(2026, 8, 20, 4, 0, 0, 0, time.UTC),
	}
}

func TestRunDisabled(t *testing.T) {
	vendor := &mockVendor{}
	svc := NewService(testConfig("ASX:CBA"), vendor, newMockArticleStorage(), newMockLedger(), arbor.NewLogger())
	svc.SetEnabled(false)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Symbols != 0 || vendor.calls != 0 {
		t.Errorf("disabled run touched vendor: report=%+v calls=%d", report, vendor.calls)
	}
}

func TestRunStoresArticles(t *testing.T) {
	vendor := &mockVendor{articles: []interfaces.VendorArticle{
		vendorArticle("ext_1", "First"),
		vendorArticle("ext_2", "Second"),
	}}
	storage := newMockArticleStorage()
	ledger := newMockLedger()
	svc := NewService(testConfig("ASX:CBA"), vendor, storage, ledger, arbor.NewLogger())

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Symbols != 1 || report.Succeeded != 1 || report.Articles != 2 {
		t.Errorf("report = %+v", report)
	}
	if len(storage.saved) != 2 {
		t.Fatalf("saved %d articles, want 2", len(storage.saved))
	}
	if vendor.symbols[0] != "CBA.AU" {
		t.Errorf("vendor called with %q, want CBA.AU", vendor.symbols[0])
	}

	c := ledger.counts["ASX:CBA"]
	if c == nil || c.Attempts != 1 || c.Successes != 1 || c.Failures != 0 {
		t.Errorf("ledger counts = %+v", c)
	}
}

func TestRunNormalizesSymbols(t *testing.T) {
	item := vendorArticle("ext_1", "First")
	item.Symbols = []string{"CBA.AU", "BHP.AU", "CBA.AU"}
	vendor := &mockVendor{articles: []interfaces.VendorArticle{item}}
	storage := newMockArticleStorage()
	svc := NewService(testConfig("ASX:CBA"), vendor, storage, newMockLedger(), arbor.NewLogger())

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := storage.saved[0]
	want := []string{"ASX:CBA", "ASX:BHP"}
	if len(got.Symbols) != len(want) {
		t.Fatalf("Symbols = %v, want %v", got.Symbols, want)
	}
	for i := range want {
		if got.Symbols[i] != want[i] {
			t.Errorf("Symbols[%d] = %q, want %q", i, got.Symbols[i], want[i])
		}
	}
	if got.Source != "afr.com" {
		t.Errorf("Source = %q, want afr.com", got.Source)
	}
}

func TestRunDeduplicates(t *testing.T) {
	vendor := &mockVendor{articles: []interfaces.VendorArticle{
		vendorArticle("ext_1", "First"),
	}}
	storage := newMockArticleStorage()
	storage.known["ext_1"] = true
	svc := NewService(testConfig("ASX:CBA"), vendor, storage, newMockLedger(), arbor.NewLogger())

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Duplicate != 1 || report.Articles != 0 {
		t.Errorf("report = %+v", report)
	}
	if len(storage.saved) != 0 {
		t.Errorf("duplicate article was stored")
	}
}

func TestRunDailyLimitThrottles(t *testing.T) {
	vendor := &mockVendor{articles: []interfaces.VendorArticle{vendorArticle("ext_1", "First")}}
	ledger := newMockLedger()
	ledger.get("ASX:CBA").Attempts = 6
	svc := NewService(testConfig("ASX:CBA"), vendor, newMockArticleStorage(), ledger, arbor.NewLogger())

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Throttled != 1 || report.Succeeded != 0 {
		t.Errorf("report = %+v", report)
	}
	if vendor.calls != 0 {
		t.Errorf("throttled symbol still reached vendor")
	}
}

func TestRunRetriesVendorFailure(t *testing.T) {
	vendor := &mockVendor{
		articles:  []interfaces.VendorArticle{vendorArticle("ext_1", "First")},
		failCount: 1,
	}
	config := testConfig("ASX:CBA")
	config.MaxRetries = 1
	svc := NewService(config, vendor, newMockArticleStorage(), newMockLedger(), arbor.NewLogger())

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Succeeded != 1 || report.Failed != 0 {
		t.Errorf("report = %+v", report)
	}
	if vendor.calls != 2 {
		t.Errorf("vendor calls = %d, want 2", vendor.calls)
	}
}

func TestRunExhaustsRetries(t *testing.T) {
	vendor := &mockVendor{failCount: 10}
	ledger := newMockLedger()
	svc := NewService(testConfig("ASX:CBA"), vendor, newMockArticleStorage(), ledger, arbor.NewLogger())

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Failed != 1 || report.Succeeded != 0 {
		t.Errorf("report = %+v", report)
	}
	if ledger.counts["ASX:CBA"].Failures != 1 {
		t.Errorf("failure not recorded in ledger: %+v", ledger.counts["ASX:CBA"])
	}
}

func TestRunSkipsUnparseableSymbols(t *testing.T) {
	vendor := &mockVendor{articles: []interfaces.VendorArticle{vendorArticle("ext_1", "First")}}
	svc := NewService(testConfig("", "ASX:CBA"), vendor, newMockArticleStorage(), newMockLedger(), arbor.NewLogger())

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Symbols != 1 || vendor.calls != 1 {
		t.Errorf("report = %+v, calls = %d", report, vendor.calls)
	}
}

func TestSourceFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.afr.com/markets/story", "afr.com"},
		{"https://reuters.com/business", "reuters.com"},
		{"not a url", "unknown"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		if got := sourceFromURL(tt.url); got != tt.want {
			t.Errorf("sourceFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
