// Package common provides shared utilities across the application.
//
// Ticker normalization lives here so that fetch, search, and the API layer
// all share a single set of exchange/vendor lookup tables.
package common

import (
	"strings"
)

// Ticker represents a parsed exchange-qualified ticker.
// Format: EXCHANGE:CODE (e.g., "ASX:CBA", "NASDAQ:AAPL")
type Ticker struct {
	// Exchange is the exchange code (e.g., "ASX", "NYSE", "NASDAQ")
	Exchange string
	// Code is the stock/security code (e.g., "CBA", "AAPL")
	Code string
	// Raw is the original ticker string
	Raw string
}

// ExchangeToSuffix maps exchange codes to vendor API suffixes.
// The vendor (EODHD) uses CODE.SUFFIX symbols, e.g. "CBA.AU".
var ExchangeToSuffix = map[string]string{
	"ASX":    ".AU",
	"NYSE":   ".US",
	"NASDAQ": ".US",
	"AMEX":   ".US",
	"LSE":    ".LSE",
	"TSX":    ".TO",
	"XETRA":  ".XETRA",
	"PAR":    ".PA",
	"HKEX":   ".HK",
	"SGX":    ".SG",
	"TSE":    ".TYO",
	"INDX":   ".INDX",
}

// SuffixToExchange maps vendor symbol suffixes back to exchange codes.
var SuffixToExchange = map[string]string{
	"AU":    "ASX",
	"US":    "NASDAQ", // US suffix is ambiguous; NASDAQ is the display default
	"LSE":   "LSE",
	"TO":    "TSX",
	"XETRA": "XETRA",
	"PA":    "PAR",
	"HK":    "HKEX",
	"SG":    "SGX",
	"TYO":   "TSE",
	"INDX":  "INDX",
}

// DefaultExchange is the exchange assumed when parsing tickers without a prefix.
// Overridden at startup from the [markets] config section.
var DefaultExchange = "ASX"

// SetDefaultExchange sets the default exchange for parsing tickers.
// Called during app initialization from config.
func SetDefaultExchange(exchange string) {
	if exchange != "" {
		DefaultExchange = strings.ToUpper(exchange)
	}
}

// ParseTicker parses an exchange-qualified ticker string.
// Supports formats:
//   - "ASX:CBA" -> Exchange="ASX", Code="CBA" (colon separator)
//   - "ASX.CBA" -> Exchange="ASX", Code="CBA" (dot separator, known exchanges only)
//   - "CBA" -> Exchange=DefaultExchange, Code="CBA"
//   - "cba" -> Exchange=DefaultExchange, Code="CBA" (normalized to uppercase)
func ParseTicker(ticker string) Ticker {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return Ticker{}
	}

	if idx := strings.Index(ticker, ":"); idx > 0 {
		return Ticker{
			Exchange: strings.ToUpper(ticker[:idx]),
			Code:     strings.ToUpper(ticker[idx+1:]),
			Raw:      ticker,
		}
	}

	// Dot separator only counts as EXCHANGE.CODE when the prefix is a known
	// exchange, to avoid conflicts with codes containing dots.
	if idx := strings.Index(ticker, "."); idx > 0 {
		possibleExchange := strings.ToUpper(ticker[:idx])
		if _, ok := ExchangeToSuffix[possibleExchange]; ok {
			return Ticker{
				Exchange: possibleExchange,
				Code:     strings.ToUpper(ticker[idx+1:]),
				Raw:      ticker,
			}
		}
	}

	return Ticker{
		Exchange: DefaultExchange,
		Code:     strings.ToUpper(ticker),
		Raw:      ticker,
	}
}

// String returns the full exchange-qualified ticker string.
func (t Ticker) String() string {
	if t.Exchange == "" || t.Code == "" {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// VendorSymbol returns the vendor API symbol format.
// Example: "ASX:CBA" -> "CBA.AU"
func (t Ticker) VendorSymbol() string {
	if t.Code == "" {
		return ""
	}
	suffix, ok := ExchangeToSuffix[t.Exchange]
	if !ok {
		// Default to US for unknown exchanges
		suffix = ".US"
	}
	return t.Code + suffix
}

// ParseVendorSymbol parses a vendor-format symbol string (CODE.SUFFIX,
// e.g. "CBA.AU", "AAPL.US", "BRK.B.US"). The last dot splits code from
// suffix because codes can themselves contain dots.
func ParseVendorSymbol(symbol string) Ticker {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return Ticker{}
	}

	lastDot := strings.LastIndex(symbol, ".")
	if lastDot <= 0 || lastDot == len(symbol)-1 {
		return Ticker{}
	}

	code := strings.ToUpper(symbol[:lastDot])
	suffix := strings.ToUpper(symbol[lastDot+1:])

	exchange, ok := SuffixToExchange[suffix]
	if !ok {
		exchange = suffix
	}

	return Ticker{
		Exchange: exchange,
		Code:     code,
		Raw:      symbol,
	}
}

// ParseTickers parses a list of ticker strings, dropping empty results.
func ParseTickers(tickers []string) []Ticker {
	result := make([]Ticker, 0, len(tickers))
	for _, t := range tickers {
		if parsed := ParseTicker(t); parsed.Code != "" {
			result = append(result, parsed)
		}
	}
	return result
}
