// Package extract pulls ticker symbols and years out of free-text
// questions using pattern matching, a company-name dictionary, and a few
// disambiguation heuristics. Deterministic; no external calls.
package extract

import (
	"regexp"
	"strings"
)

var (
	dollarPattern = regexp.MustCompile(`\$([A-Z]{1,5})\b`)
	parenPattern  = regexp.MustCompile(`\(([A-Z]{1,5})\)`)
	cleanPattern  = regexp.MustCompile(`[^\w\s]`)
	yearPattern   = regexp.MustCompile(`\b(20\d{2})\b`)
)

// stopWords are common question words that look like tickers when
// uppercased.
var stopWords = map[string]bool{
	"WHAT": true, "IS": true, "THE": true, "LATEST": true, "PRICE": true, "OF": true,
	"SHOW": true, "ME": true, "TELL": true, "FOR": true, "STOCK": true, "COMPANY": true,
	"SHARE": true, "SHARES": true, "STOCKS": true, "CURRENT": true,
	"GET": true, "GIVE": true, "FIND": true, "SEARCH": true, "LOOKUP": true,
	"AND": true, "NOW": true, "TODAY": true, "ABOUT": true, "HOW": true, "DID": true,
	"DO": true, "DOES": true, "ARE": true, "WAS": true, "WERE": true, "IN": true,
	"ON": true, "AT": true, "TO": true, "THIS": true, "THAT": true, "ITS": true,
	"YOU": true, "CAN": true, "PLEASE": true, "WHY": true, "WHEN": true, "WHERE": true,
	"WHICH": true, "WHO": true, "MUCH": true, "MANY": true, "MORE": true, "MOST": true,
	"LAST": true, "YEAR": true, "PRICES": true, "CLOSE": true, "OPEN": true,
	"HIGH": true, "LOW": true, "VOLUME": true, "VALUE": true, "WORTH": true,
}

// companyNames maps lowercase company names to tickers. Multi-word keys
// are matched as substrings of the lowercased question.
var companyNames = []struct {
	name   string
	ticker string
}{
	{"apple", "AAPL"},
	{"microsoft", "MSFT"},
	{"google", "GOOG"},
	{"alphabet", "GOOG"},
	{"amazon", "AMZN"},
	{"meta", "META"},
	{"facebook", "META"},
	{"nvidia", "NVDA"},
	{"tesla", "TSLA"},
	{"jpmorgan", "JPM"},
	{"jp morgan", "JPM"},
	{"jpm", "JPM"},
	{"unitedhealth", "UNH"},
	{"united health", "UNH"},
	{"berkshire hathaway", "BRK-B"},
	{"berkshire", "BRK-B"},
	{"brk", "BRK-B"},
}

// knownTickers are the symbols present in the graph; an exact token match
// wins over any candidate heuristic.
var knownTickers = map[string]bool{
	"AAPL": true, "MSFT": true, "GOOG": true, "AMZN": true, "META": true,
	"NVDA": true, "TSLA": true, "JPM": true, "UNH": true, "BRK-B": true,
}

// stockKeywords signal the question is about equities rather than, say,
// fruit.
var stockKeywords = []string{
	"stock", "stocks", "price", "prices", "share", "shares", "ticker",
	"trading", "market", "company", "companies", "equity", "equities",
	"latest", "current", "close", "open", "high", "low", "volume",
	"performance", "return", "dividend", "earnings", "revenue",
}

var fruitIndicators = []string{
	"fruit", "red", "green", "eat", "eating", "taste", "sweet",
	"tree", "orchard", "juice", "pie", "cider",
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Symbol extracts a ticker symbol from a question. It returns "" when no
// symbol can be determined with reasonable confidence.
//
// Priority order: $SYMBOL, (SYMBOL), company-name dictionary (with the
// apple fruit-vs-stock disambiguation), exact known-ticker token, then
// candidate tokens guarded by stock-context keywords.
func Symbol(question string) string {
	lower := strings.ToLower(question)
	upper := strings.ToUpper(question)
	hasStockContext := containsAny(lower, stockKeywords)

	if m := dollarPattern.FindStringSubmatch(upper); m != nil && !stopWords[m[1]] {
		return m[1]
	}
	if m := parenPattern.FindStringSubmatch(upper); m != nil && !stopWords[m[1]] {
		return m[1]
	}

	for _, c := range companyNames {
		if !strings.Contains(lower, c.name) {
			continue
		}
		if c.name == "apple" && !hasStockContext && containsAny(lower, fruitIndicators) {
			// "apple pie", "apple tree": a fruit mention, not the company.
			return ""
		}
		return c.ticker
	}

	cleaned := cleanPattern.ReplaceAllString(upper, " ")
	var candidates []string
	for _, w := range strings.Fields(cleaned) {
		if !isAlpha(w) || len(w) < 1 || len(w) > 5 || stopWords[w] {
			continue
		}
		if knownTickers[w] {
			return w
		}
		if len(w) >= 2 {
			candidates = append([]string{w}, candidates...)
		} else {
			candidates = append(candidates, w)
		}
	}

	if hasStockContext && len(candidates) > 0 {
		return candidates[0]
	}
	// Without stock context only accept longer candidates.
	if len(candidates) > 0 && len(candidates[0]) >= 3 {
		return candidates[0]
	}
	return ""
}

// Year extracts a four-digit year (2000-2099) from the question.
func Year(question string) (int, bool) {
	m := yearPattern.FindStringSubmatch(question)
	if m == nil {
		return 0, false
	}
	year := 0
	for _, r := range m[1] {
		year = year*10 + int(r-'0')
	}
	return year, true
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return len(s) > 0
}
