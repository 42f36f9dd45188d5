package common

import (
	"testing"
	"time"
)

func TestValidateJobSchedule(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{"six times daily", "0 0,4,8,12,16,20 * * *", false},
		{"every five minutes", "*/5 * * * *", false},
		{"hourly", "0 * * * *", false},
		{"every minute rejected", "* * * * *", true},
		{"two minute interval rejected", "*/2 * * * *", true},
		{"garbage rejected", "not a cron", true},
		{"too few fields", "0 4 *", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJobSchedule(tt.schedule)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateJobSchedule(%q) error = %v, wantErr %v", tt.schedule, err, tt.wantErr)
			}
		})
	}
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	if err := config.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	if config.Fetch.Schedule != "0 0,4,8,12,16,20 * * *" {
		t.Errorf("unexpected default fetch schedule: %q", config.Fetch.Schedule)
	}
	if config.Fetch.MaxRetries != 2 {
		t.Errorf("unexpected default max retries: %d", config.Fetch.MaxRetries)
	}
	if config.Fetch.DailyLimit != 6 {
		t.Errorf("unexpected default daily limit: %d", config.Fetch.DailyLimit)
	}
	if config.LLM.DefaultProvider != LLMProviderClaude {
		t.Errorf("unexpected default provider: %q", config.LLM.DefaultProvider)
	}
}

func TestSymbolDelayDuration(t *testing.T) {
	tests := []struct {
		delay string
		want  time.Duration
	}{
		{"500ms", 500 * time.Millisecond},
		{"2s", 2 * time.Second},
		{"", 500 * time.Millisecond},
		{"bogus", 500 * time.Millisecond},
		{"-1s", 500 * time.Millisecond},
	}

	for _, tt := range tests {
		c := &FetchConfig{SymbolDelay: tt.delay}
		if got := c.SymbolDelayDuration(); got != tt.want {
			t.Errorf("SymbolDelayDuration(%q) = %v, want %v", tt.delay, got, tt.want)
		}
	}
}

func TestConfigValidateRejectsBadSchedule(t *testing.T) {
	config := NewDefaultConfig()
	config.AI.Schedule = "* * * * *"
	if err := config.Validate(); err == nil {
		t.Error("expected validation error for every-minute AI schedule")
	}
}
