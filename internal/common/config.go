package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Redis       RedisConfig     `toml:"redis"`
	Logging     LoggingConfig   `toml:"logging"`
	Fetch       FetchConfig     `toml:"fetch"`
	AI          AIConfig        `toml:"ai"`
	Search      SearchConfig    `toml:"search"`
	Vendor      VendorConfig    `toml:"vendor"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	LLM         LLMConfig       `toml:"llm"`
	Markets     MarketsConfig   `toml:"markets"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	SQLite SQLiteConfig `toml:"sqlite"`
}

// SQLiteConfig represents SQLite-specific configuration
type SQLiteConfig struct {
	Path          string `toml:"path" validate:"required"`
	CacheSizeMB   int    `toml:"cache_size_mb"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
	WALMode       bool   `toml:"wal_mode"`
}

// RedisConfig holds connection settings for the fetch ledger
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// FetchConfig controls the news fetch scheduler
type FetchConfig struct {
	Enabled          bool     `toml:"enabled"`
	Schedule         string   `toml:"schedule"`           // Cron schedule format
	Symbols          []string `toml:"symbols"`            // Exchange-qualified tickers (e.g., "ASX:CBA")
	ArticlesPerFetch int      `toml:"articles_per_fetch"` // Per-symbol article limit per run
	MaxRetries       int      `toml:"max_retries"`        // Retries per symbol on vendor failure
	DailyLimit       int      `toml:"daily_limit"`        // Max fetch attempts per symbol per UTC day
	SymbolDelay      string   `toml:"symbol_delay"`       // Pause between symbols (duration string)
}

// AIConfig controls the AI processing scheduler
type AIConfig struct {
	Enabled          bool   `toml:"enabled"`
	Schedule         string `toml:"schedule"`           // Cron schedule format
	BatchSize        int    `toml:"batch_size"`         // Max articles per run
	MinContentLength int    `toml:"min_content_length"` // Skip articles with shorter content
}

// SearchConfig contains configuration for search behavior
type SearchConfig struct {
	DefaultLimit int `toml:"default_limit"`
	MaxLimit     int `toml:"max_limit"`
}

// VendorConfig contains the news vendor API configuration
type VendorConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	RequestTimeout string `toml:"request_timeout"` // Duration string
	RateLimit      int    `toml:"rate_limit"`      // Requests per second
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"` // Duration string
	Temperature float32 `toml:"temperature"`
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"` // Duration string
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude"
}

// MarketsConfig controls ticker parsing behavior
type MarketsConfig struct {
	DefaultExchange string `toml:"default_exchange"` // Exchange assumed for bare ticker codes
}

// SchedulerConfig controls the job scheduler
type SchedulerConfig struct {
	Enabled bool `toml:"enabled"`
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability;
// only user-facing settings should be exposed in newsdesk.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			SQLite: SQLiteConfig{
				Path:          "./data/newsdesk.db",
				CacheSizeMB:   64,
				BusyTimeoutMS: 5000,
				WALMode:       true,
			},
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			DB:   0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Fetch: FetchConfig{
			Enabled:          true,
			Schedule:         "0 0,4,8,12,16,20 * * *", // Six times daily, UTC
			Symbols:          []string{},
			ArticlesPerFetch: 5,
			MaxRetries:       2,
			DailyLimit:       6,
			SymbolDelay:      "500ms",
		},
		AI: AIConfig{
			Enabled:          true,
			Schedule:         "*/5 * * * *",
			BatchSize:        10,
			MinContentLength: 100,
		},
		Search: SearchConfig{
			DefaultLimit: 50,
			MaxLimit:     100,
		},
		Vendor: VendorConfig{
			BaseURL:        "", // Empty uses the client default
			RequestTimeout: "30s",
			RateLimit:      10,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   1024,
			Timeout:     "2m",
			Temperature: 0.3,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			Temperature: 0.3,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
		},
		Markets: MarketsConfig{
			DefaultExchange: "ASX",
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	SetDefaultExchange(config.Markets.DefaultExchange)

	return config, nil
}

// Validate checks structural constraints on the configuration
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Fetch.Schedule != "" {
		if err := ValidateJobSchedule(c.Fetch.Schedule); err != nil {
			return fmt.Errorf("invalid fetch schedule: %w", err)
		}
	}
	if c.AI.Schedule != "" {
		if err := ValidateJobSchedule(c.AI.Schedule); err != nil {
			return fmt.Errorf("invalid ai schedule: %w", err)
		}
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NEWSDESK_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("NEWSDESK_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("NEWSDESK_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if path := os.Getenv("NEWSDESK_SQLITE_PATH"); path != "" {
		config.Storage.SQLite.Path = path
	}

	// Redis configuration
	if addr := os.Getenv("NEWSDESK_REDIS_ADDR"); addr != "" {
		config.Redis.Addr = addr
	}
	if password := os.Getenv("NEWSDESK_REDIS_PASSWORD"); password != "" {
		config.Redis.Password = password
	}
	if db := os.Getenv("NEWSDESK_REDIS_DB"); db != "" {
		if d, err := strconv.Atoi(db); err == nil {
			config.Redis.DB = d
		}
	}

	// Logging configuration
	if level := os.Getenv("NEWSDESK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("NEWSDESK_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Fetch configuration
	if enabled := os.Getenv("NEWSDESK_FETCH_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Fetch.Enabled = e
		}
	}
	if schedule := os.Getenv("NEWSDESK_FETCH_SCHEDULE"); schedule != "" {
		config.Fetch.Schedule = schedule
	}
	if symbols := os.Getenv("NEWSDESK_FETCH_SYMBOLS"); symbols != "" {
		parsed := []string{}
		for _, s := range strings.Split(symbols, ",") {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				parsed = append(parsed, trimmed)
			}
		}
		if len(parsed) > 0 {
			config.Fetch.Symbols = parsed
		}
	}
	if limit := os.Getenv("NEWSDESK_FETCH_DAILY_LIMIT"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			config.Fetch.DailyLimit = l
		}
	}

	// AI configuration
	if enabled := os.Getenv("NEWSDESK_AI_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.AI.Enabled = e
		}
	}
	if schedule := os.Getenv("NEWSDESK_AI_SCHEDULE"); schedule != "" {
		config.AI.Schedule = schedule
	}
	if batch := os.Getenv("NEWSDESK_AI_BATCH_SIZE"); batch != "" {
		if b, err := strconv.Atoi(batch); err == nil {
			config.AI.BatchSize = b
		}
	}

	// Vendor configuration
	if apiKey := os.Getenv("NEWSDESK_VENDOR_API_KEY"); apiKey != "" {
		config.Vendor.APIKey = apiKey
	}
	if baseURL := os.Getenv("NEWSDESK_VENDOR_BASE_URL"); baseURL != "" {
		config.Vendor.BaseURL = baseURL
	}

	// Claude configuration (ANTHROPIC_API_KEY is the standard variable,
	// NEWSDESK_ prefix takes priority)
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("NEWSDESK_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("NEWSDESK_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	// Gemini configuration
	if apiKey := os.Getenv("NEWSDESK_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("NEWSDESK_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	// LLM provider configuration
	if provider := os.Getenv("NEWSDESK_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	// Markets configuration
	if exchange := os.Getenv("NEWSDESK_DEFAULT_EXCHANGE"); exchange != "" {
		config.Markets.DefaultExchange = exchange
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ValidateJobSchedule validates a cron schedule expression and ensures minimum 5-minute interval
func ValidateJobSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]

	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	if strings.HasPrefix(minuteField, "*/") {
		intervalStr := strings.TrimPrefix(minuteField, "*/")
		interval, err := strconv.Atoi(intervalStr)
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// SymbolDelayDuration parses the configured pause between symbol fetches.
func (c *FetchConfig) SymbolDelayDuration() time.Duration {
	d, err := time.ParseDuration(c.SymbolDelay)
	if err != nil || d < 0 {
		return 500 * time.Millisecond
	}
	return d
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
