// Package search parses free-text queries into storage filters and runs
// them against the search index.
package search

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/newsdesk/internal/common"
	"github.com/ternarybob/newsdesk/internal/interfaces"
)

// symbolRegex classifies a bare token as a ticker symbol: an optional
// exchange prefix followed by a short uppercase code. Classification only
// applies to tokens the user wrote in uppercase, so "CBA" is a symbol but
// "bank" (or "Bank") is a keyword. Pure regex, no hidden state.
var symbolRegex = regexp.MustCompile(`^(?:[A-Z]{2,10}[:.])?[A-Z]{1,6}(?:\.[A-Z]{1,5})?$`)

// ParsedQuery is the result of parsing a free-text search query.
type ParsedQuery struct {
	Symbols  []string // Normalized exchange-qualified symbols
	Keywords []string

	Source       string
	MinSentiment *int
	MaxSentiment *int
	Since        *time.Time
	Until        *time.Time
	OrderBy      string
}

// ParseQuery tokenizes a query string and classifies each token.
//
// Quoted phrases are always keywords. Qualifier tokens take the form
// key:value and set filters:
//
//	symbol:CBA          force symbol classification
//	source:reuters.com  publisher filter
//	sentiment:>50       minimum rating (also >=, <, <=, or exact)
//	since:2026-01-01    published on or after
//	until:2026-06-30    published on or before
//	sort:sentiment      order by sentiment instead of publish date
//
// Remaining bare tokens are symbols if they look like uppercase tickers,
// keywords otherwise.
func ParseQuery(query string) *ParsedQuery {
	parsed := &ParsedQuery{}

	for _, token := range tokenize(query) {
		if token.quoted {
			parsed.Keywords = append(parsed.Keywords, token.text)
			continue
		}

		if key, value, ok := splitQualifier(token.text); ok {
			applyQualifier(parsed, key, value)
			continue
		}

		if symbolRegex.MatchString(token.text) {
			parsed.Symbols = append(parsed.Symbols, common.ParseTicker(token.text).String())
		} else {
			parsed.Keywords = append(parsed.Keywords, token.text)
		}
	}

	return parsed
}

// Filter converts the parsed query into a storage filter.
func (q *ParsedQuery) Filter(limit, offset int) *interfaces.SearchFilter {
	return &interfaces.SearchFilter{
		Symbols:      q.Symbols,
		Keywords:     q.Keywords,
		Source:       q.Source,
		MinSentiment: q.MinSentiment,
		MaxSentiment: q.MaxSentiment,
		Since:        q.Since,
		Until:        q.Until,
		OrderBy:      q.OrderBy,
		Limit:        limit,
		Offset:       offset,
	}
}

type token struct {
	text   string
	quoted bool
}

// tokenize splits a query on whitespace, keeping double-quoted phrases as
// single tokens.
func tokenize(query string) []token {
	var tokens []token
	var current strings.Builder
	inQuote := false

	flush := func(quoted bool) {
		text := strings.TrimSpace(current.String())
		current.Reset()
		if text != "" {
			tokens = append(tokens, token{text: text, quoted: quoted})
		}
	}

	for _, r := range query {
		switch {
		case r == '"':
			flush(inQuote)
			inQuote = !inQuote
		case !inQuote && (r == ' ' || r == '\t' || r == '\n'):
			flush(false)
		default:
			current.WriteRune(r)
		}
	}
	flush(inQuote)

	return tokens
}

// splitQualifier detects key:value tokens with a known qualifier key.
// Other colon tokens (e.g. "ASX:CBA") are left for symbol classification.
func splitQualifier(text string) (key, value string, ok bool) {
	idx := strings.Index(text, ":")
	if idx <= 0 || idx == len(text)-1 {
		return "", "", false
	}

	key = strings.ToLower(text[:idx])
	switch key {
	case "symbol", "source", "sentiment", "since", "until", "sort":
		return key, text[idx+1:], true
	}
	return "", "", false
}

func applyQualifier(parsed *ParsedQuery, key, value string) {
	switch key {
	case "symbol":
		parsed.Symbols = append(parsed.Symbols, common.ParseTicker(value).String())
	case "source":
		parsed.Source = strings.ToLower(value)
	case "sentiment":
		applySentiment(parsed, value)
	case "since":
		if t, err := time.Parse("2006-01-02", value); err == nil {
			parsed.Since = &t
		}
	case "until":
		if t, err := time.Parse("2006-01-02", value); err == nil {
			// Inclusive of the named day
			end := t.Add(24*time.Hour - time.Second)
			parsed.Until = &end
		}
	case "sort":
		if strings.ToLower(value) == "sentiment" {
			parsed.OrderBy = "sentiment"
		}
	}
}

// applySentiment parses sentiment:>N, sentiment:>=N, sentiment:<N,
// sentiment:<=N, or sentiment:N (exact match). Unparseable values are
// ignored.
func applySentiment(parsed *ParsedQuery, value string) {
	op := ""
	for _, prefix := range []string{">=", "<=", ">", "<"} {
		if strings.HasPrefix(value, prefix) {
			op = prefix
			value = value[len(prefix):]
			break
		}
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return
	}

	switch op {
	case ">=":
		parsed.MinSentiment = &n
	case "<=":
		parsed.MaxSentiment = &n
	case ">":
		min := n + 1
		parsed.MinSentiment = &min
	case "<":
		max := n - 1
		parsed.MaxSentiment = &max
	default:
		parsed.MinSentiment = &n
		parsed.MaxSentiment = &n
	}
}
