// Package app wires configuration, storage, services, and handlers into a
// running application.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/newsdesk/internal/common"
	"github.com/ternarybob/newsdesk/internal/eodhd"
	"github.com/ternarybob/newsdesk/internal/handlers"
	"github.com/ternarybob/newsdesk/internal/interfaces"
	"github.com/ternarybob/newsdesk/internal/services/ai"
	"github.com/ternarybob/newsdesk/internal/services/fetch"
	"github.com/ternarybob/newsdesk/internal/services/llm"
	"github.com/ternarybob/newsdesk/internal/services/scheduler"
	"github.com/ternarybob/newsdesk/internal/services/search"
	redisstore "github.com/ternarybob/newsdesk/internal/storage/redis"
	"github.com/ternarybob/newsdesk/internal/storage/sqlite"
)

// Scheduler job names.
const (
	JobNewsFetch    = "news_fetch"
	JobAIProcessing = "ai_processing"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	DB             *sqlite.SQLiteDB
	ArticleStorage interfaces.ArticleStorage
	SearchStorage  interfaces.SearchIndexStorage
	FetchLedger    *redisstore.FetchLedger

	// Services
	LLMFactory        *llm.ProviderFactory
	FetchService      interfaces.FetchService
	ProcessingService interfaces.ProcessingService
	SearchService     interfaces.SearchService
	SchedulerService  interfaces.SchedulerService

	// Handlers
	SearchHandler    *handlers.SearchHandler
	ArticleHandler   *handlers.ArticleHandler
	SchedulerHandler *handlers.SchedulerHandler
	FetchHandler     *handlers.FetchHandler
	StatusHandler    *handlers.StatusHandler
}

// New creates and wires the application from configuration.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: config,
		Logger: logger,
	}

	// Storage layer
	db, err := sqlite.NewSQLiteDB(logger, &config.Storage.SQLite)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
	}
	a.DB = db
	a.ArticleStorage = sqlite.NewArticleStorage(db, logger)
	a.SearchStorage = sqlite.NewSearchStorage(db, logger)
	jobSettings := sqlite.NewJobSettingsStorage(db, logger)

	a.FetchLedger = redisstore.NewFetchLedger(&config.Redis, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := a.FetchLedger.Ping(ctx); err != nil {
		logger.Warn().Err(err).Msg("Redis unreachable at startup, fetch throttling degraded")
	}
	cancel()

	// Vendor client
	vendorOpts := []eodhd.ClientOption{eodhd.WithLogger(logger)}
	if config.Vendor.BaseURL != "" {
		vendorOpts = append(vendorOpts, eodhd.WithBaseURL(config.Vendor.BaseURL))
	}
	if config.Vendor.RateLimit > 0 {
		vendorOpts = append(vendorOpts, eodhd.WithRateLimit(config.Vendor.RateLimit))
	}
	if config.Vendor.RequestTimeout != "" {
		if timeout, err := time.ParseDuration(config.Vendor.RequestTimeout); err == nil {
			vendorOpts = append(vendorOpts, eodhd.WithTimeout(timeout))
		}
	}
	vendorClient := eodhd.NewClient(config.Vendor.APIKey, vendorOpts...)
	newsSource := eodhd.NewNewsSource(vendorClient)

	// LLM provider
	a.LLMFactory = llm.NewProviderFactory(&config.Gemini, &config.Claude, &config.LLM, logger)

	// Domain services
	a.FetchService = fetch.NewService(&config.Fetch, newsSource, a.ArticleStorage, a.FetchLedger, logger)
	a.ProcessingService = ai.NewService(&config.AI, a.ArticleStorage, a.SearchStorage, a.LLMFactory, logger)
	a.SearchService = search.NewService(&config.Search, a.SearchStorage, logger)

	// Scheduler with registered jobs
	sched := scheduler.NewService(jobSettings, logger)
	a.SchedulerService = sched

	if err := a.registerJobs(); err != nil {
		a.FetchLedger.Close()
		db.Close()
		return nil, err
	}

	// Handlers
	a.SearchHandler = handlers.NewSearchHandler(a.SearchService, logger)
	a.ArticleHandler = handlers.NewArticleHandler(a.ArticleStorage, logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService, logger)
	a.FetchHandler = handlers.NewFetchHandler(a.FetchService, logger)
	a.StatusHandler = handlers.NewStatusHandler(a.ArticleStorage, a.SearchStorage, a.FetchLedger, a.SchedulerService, logger)

	return a, nil
}

// registerJobs wires the fetch and AI processing cycles into the scheduler.
func (a *App) registerJobs() error {
	fetchHandler := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		_, err := a.FetchService.Run(ctx)
		return err
	}
	if err := a.SchedulerService.RegisterJob(JobNewsFetch, a.Config.Fetch.Schedule,
		"Fetch news articles for configured symbols", fetchHandler); err != nil {
		return fmt.Errorf("failed to register fetch job: %w", err)
	}

	aiHandler := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		_, err := a.ProcessingService.Run(ctx)
		return err
	}
	if err := a.SchedulerService.RegisterJob(JobAIProcessing, a.Config.AI.Schedule,
		"Enrich articles with AI summary, insights, and sentiment", aiHandler); err != nil {
		return fmt.Errorf("failed to register AI processing job: %w", err)
	}

	if !a.Config.AI.Enabled {
		if err := a.SchedulerService.DisableJob(JobAIProcessing); err != nil {
			return fmt.Errorf("failed to disable AI processing job: %w", err)
		}
	}

	return nil
}

// Start launches background services.
func (a *App) Start() error {
	if !a.Config.Scheduler.Enabled {
		a.Logger.Info().Msg("Scheduler disabled by configuration")
		return nil
	}
	return a.SchedulerService.Start()
}

// Close shuts down services and storage in reverse dependency order.
func (a *App) Close() error {
	if a.SchedulerService != nil && a.SchedulerService.IsRunning() {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Scheduler shutdown failed")
		}
	}

	if a.LLMFactory != nil {
		a.LLMFactory.Close()
	}

	if a.FetchLedger != nil {
		if err := a.FetchLedger.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Redis client close failed")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
