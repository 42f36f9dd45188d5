package ai

import "testing"

func TestParseSentiment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"plain integer", "42", 42},
		{"negative integer", "-75", -75},
		{"zero", "0", 0},
		{"surrounding prose", "The sentiment rating is 30 overall.", 30},
		{"leading whitespace", "  -12\n", -12},
		{"clamped above max", "250", 100},
		{"clamped below min", "-300", -100},
		{"no number defaults neutral", "mostly positive", 0},
		{"empty defaults neutral", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseSentiment(tt.input); got != tt.want {
				t.Errorf("ParseSentiment(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestClampSentiment(t *testing.T) {
	tests := []struct {
		input int
		want  int
	}{
		{-101, -100},
		{-100, -100},
		{0, 0},
		{100, 100},
		{101, 100},
		{99999, 100},
	}

	for _, tt := range tests {
		if got := ClampSentiment(tt.input); got != tt.want {
			t.Errorf("ClampSentiment(%d) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
