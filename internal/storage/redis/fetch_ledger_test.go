package redis

import (
	"testing"
	"time"
)

func TestLedgerKey(t *testing.T) {
	day := time.Date(2026, 8, 23, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		symbol string
		day    time.Time
		want   string
	}{
		{"exchange qualified", "ASX:CBA", day, "fetch:ASX:CBA:2026-08-23"},
		{"lowercase normalized", "asx:cba", day, "fetch:ASX:CBA:2026-08-23"},
		{"time of day ignored", "ASX:BHP", day.Add(9 * time.Hour), "fetch:ASX:BHP:2026-08-23"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LedgerKey(tt.symbol, tt.day); got != tt.want {
				t.Errorf("LedgerKey(%q) = %q, want %q", tt.symbol, got, tt.want)
			}
		})
	}
}

func TestLedgerKeyUsesUTCDay(t *testing.T) {
	// 2026-08-23 22:00 in UTC+10 is still 2026-08-23 12:00 UTC
	sydney := time.FixedZone("AEST", 10*60*60)
	day := time.Date(2026, 8, 23, 22, 0, 0, 0, sydney)

	if got := LedgerKey("ASX:CBA", day); got != "fetch:ASX:CBA:2026-08-23" {
		t.Errorf("LedgerKey = %q, want UTC day 2026-08-23", got)
	}

	// 2026-08-24 08:00 in UTC+10 is 2026-08-23 22:00 UTC
	nextMorning := time.Date(2026, 8, 24, 8, 0, 0, 0, sydney)
	if got := LedgerKey("ASX:CBA", nextMorning); got != "fetch:ASX:CBA:2026-08-23" {
		t.Errorf("LedgerKey = %q, want UTC day 2026-08-23", got)
	}
}
