// Package cypher turns natural-language questions into validated,
// parameterized Cypher queries via a language model, with a small cache
// for repeated questions and a deterministic repair pass for "latest"
// queries the model tends to emit without DESC LIMIT 1.
package cypher

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/smallnest/stockgraph/extract"
	"github.com/smallnest/stockgraph/llm"
	"github.com/smallnest/stockgraph/log"
	"github.com/smallnest/stockgraph/schema"
	"github.com/smallnest/stockgraph/session"
)

const (
	cacheLimit  = 100
	genTimeout  = 15 * time.Second
	genMaxToken = 250

	// invalidMarker is the literal response meaning "no query possible".
	invalidMarker = "INVALID_QUESTION"
)

var (
	fencePattern     = regexp.MustCompile("```(?:cypher)?\n?")
	normalizePattern = regexp.MustCompile(`[^\w\s]`)
	orderByDate      = regexp.MustCompile(`(?i)ORDER BY\s+p\.date\s*$`)
	orderByDateLine  = regexp.MustCompile(`(?i)ORDER BY\s+p\.date\s*\n`)

	latestKeywords = []string{"latest", "current", "most recent", "newest", "last"}
)

// Params is the named-parameter mapping bound to a generated query.
type Params map[string]any

// Generator generates Cypher queries from questions. Safe for concurrent
// use; successful generations are cached by normalized question text up
// to cacheLimit entries (parameters are always re-extracted, since they
// depend on the question and conversation context).
type Generator struct {
	model llm.Model

	mu    sync.Mutex
	cache map[string]string
}

// NewGenerator creates a Generator on top of a model.
func NewGenerator(model llm.Model) *Generator {
	return &Generator{
		model: model,
		cache: make(map[string]string),
	}
}

// Generate produces a validated query and its parameters for a question.
// A ("", nil, nil) return means the model produced nothing usable (an
// INVALID_QUESTION response or a schema-validation failure); a non-nil
// error means the generation call itself faulted. The caller decides
// whether to retry.
func (g *Generator) Generate(ctx context.Context, question string, conv session.Context) (string, Params, error) {
	key := normalizeQuestion(question)

	if cached := g.lookup(key); cached != "" {
		log.Info("cypher: cache hit for %q", truncate(question, 50))
		return cached, g.extractParams(question, cached, conv), nil
	}

	if g.model == nil {
		return "", nil, errors.New("no model configured")
	}

	prompt := buildPrompt(question, conv)
	out, err := g.model.Complete(ctx, prompt, llm.Options{
		Temperature: 0,
		MaxTokens:   genMaxToken,
		Timeout:     genTimeout,
	})
	if err != nil {
		log.Error("cypher: generation call failed: %v", err)
		return "", nil, err
	}

	query := strings.TrimSpace(fencePattern.ReplaceAllString(out, ""))
	if strings.EqualFold(query, invalidMarker) {
		return "", nil, nil
	}

	query = PatchLatestQuery(question, query)

	if ok, reason := schema.Validate(query); !ok {
		log.Warn("cypher: generated query failed validation: %s", reason)
		log.Warn("cypher: query was: %s", query)
		return "", nil, nil
	}

	g.store(key, query)
	log.Info("cypher: generated query: %s", query)

	return query, g.extractParams(question, query, conv), nil
}

// PatchLatestQuery repairs a known systematic omission: "latest price"
// questions for which the model generates a HAS_PRICE query without a
// descending order and LIMIT 1.
func PatchLatestQuery(question, query string) string {
	q := strings.ToLower(question)
	if !containsAny(q, latestKeywords) || !strings.Contains(strings.ToUpper(query), "HAS_PRICE") {
		return query
	}

	upper := strings.ToUpper(query)
	switch {
	case strings.Contains(upper, "ORDER BY") && !strings.Contains(upper, "DESC"):
		patched := orderByDate.ReplaceAllString(query, "ORDER BY p.date DESC LIMIT 1")
		patched = orderByDateLine.ReplaceAllString(patched, "ORDER BY p.date DESC LIMIT 1\n")
		if !strings.Contains(strings.ToUpper(patched), "LIMIT 1") {
			patched = strings.TrimRight(patched, " \n") + " DESC LIMIT 1"
		}
		log.Info("cypher: patched 'latest' query to include DESC LIMIT 1")
		return patched
	case !strings.Contains(upper, "ORDER BY"):
		patched := strings.TrimRight(strings.TrimRight(query, " \n"), ";") + " ORDER BY p.date DESC LIMIT 1"
		log.Info("cypher: appended ORDER BY p.date DESC LIMIT 1 to 'latest' query")
		return patched
	default:
		return query
	}
}

// extractParams resolves the named parameters the query references.
// $symbol falls back from the question to the context's last symbol, then
// to its recent-symbols list. $year falls back to the current calendar
// year for trend follow-ups.
func (g *Generator) extractParams(question, query string, conv session.Context) Params {
	params := Params{}

	if strings.Contains(query, "$symbol") {
		symbol := extract.Symbol(question)
		if symbol == "" {
			symbol = conv.LastSymbol
			if symbol != "" {
				log.Info("cypher: using context symbol: %s", symbol)
			}
		}
		if symbol == "" && len(conv.RecentSymbols) > 0 {
			symbol = conv.RecentSymbols[0]
			log.Info("cypher: using recent symbol from context: %s", symbol)
		}
		if symbol != "" {
			params["symbol"] = symbol
		} else {
			log.Warn("cypher: could not resolve symbol for query: %s", truncate(query, 100))
		}
	}

	if strings.Contains(query, "$year") {
		if year, ok := extract.Year(question); ok {
			params["year"] = year
		} else if conv.LastQueryType == schema.QueryTrend {
			params["year"] = time.Now().Year()
		}
	}

	return params
}

func (g *Generator) lookup(key string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cache[key]
}

func (g *Generator) store(key, query string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.cache) < cacheLimit {
		g.cache[key] = query
	}
}

// CacheSize reports how many generated queries are cached.
func (g *Generator) CacheSize() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cache)
}

func normalizeQuestion(question string) string {
	normalized := normalizePattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(question)), "")
	return strings.Join(strings.Fields(normalized), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
