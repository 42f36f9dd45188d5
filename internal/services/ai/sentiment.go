package ai

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ternarybob/newsdesk/internal/models"
)

// sentimentRegex matches the first signed integer in a model response.
var sentimentRegex = regexp.MustCompile(`-?\d+`)

// ParseSentiment extracts a sentiment rating from an LLM response and clamps
// it to the valid range. Responses that contain no number parse as neutral
// (0) rather than failing the article.
func ParseSentiment(text string) int {
	match := sentimentRegex.FindString(strings.TrimSpace(text))
	if match == "" {
		return 0
	}

	rating, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}

	return ClampSentiment(rating)
}

// ClampSentiment bounds a rating to [SentimentMin, SentimentMax].
func ClampSentiment(rating int) int {
	if rating < models.SentimentMin {
		return models.SentimentMin
	}
	if rating > models.SentimentMax {
		return models.SentimentMax
	}
	return rating
}
