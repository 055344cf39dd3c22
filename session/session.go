// Package session tracks per-conversation context between turns: the last
// recognized symbol, the last query and answer, and a short bounded
// history used to enrich prompts for follow-up questions.
package session

import (
	"context"
	"time"

	"github.com/smallnest/stockgraph/schema"
)

const (
	// TTL is how long an untouched conversation survives the sweep.
	TTL = time.Hour
	// MaxHistory bounds the exchange list kept per conversation.
	MaxHistory = 5
	// answerTruncate bounds the stored answer prefix per exchange.
	answerTruncate = 200
)

// Exchange is one question/answer turn. Answers are stored truncated.
type Exchange struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// Context is the snapshot kept for one conversation id. It is replaced
// wholesale at the end of a turn, never merged.
type Context struct {
	LastSymbol    string           `json:"last_symbol,omitempty"`
	LastQueryType schema.QueryType `json:"last_query_type,omitempty"`
	LastQuestion  string           `json:"last_question,omitempty"`
	LastAnswer    string           `json:"last_answer,omitempty"`
	LastQuery     string           `json:"last_query,omitempty"`
	LastRowCount  int              `json:"last_row_count,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
	History       []Exchange       `json:"history,omitempty"`
	RecentSymbols []string         `json:"recent_symbols,omitempty"`
}

// Empty reports whether the context carries no prior turn.
func (c Context) Empty() bool {
	return c.LastQuestion == "" && c.LastAnswer == "" && len(c.History) == 0
}

// AppendExchange records a completed turn, truncating the answer and
// capping history at MaxHistory entries.
func (c *Context) AppendExchange(question, answer string, now time.Time) {
	a := answer
	if r := []rune(a); len(r) > answerTruncate {
		a = string(r[:answerTruncate])
	}
	c.History = append(c.History, Exchange{Question: question, Answer: a, Timestamp: now})
	if len(c.History) > MaxHistory {
		c.History = c.History[len(c.History)-MaxHistory:]
	}
}

// RememberSymbol moves a symbol to the front of the recent-symbols list.
func (c *Context) RememberSymbol(symbol string) {
	if symbol == "" {
		return
	}
	recent := []string{symbol}
	for _, s := range c.RecentSymbols {
		if s != symbol && len(recent) < MaxHistory {
			recent = append(recent, s)
		}
	}
	c.RecentSymbols = recent
}

// Store is the conversation context store injected into the orchestrator.
type Store interface {
	// Get returns the context for a conversation id, if present.
	Get(ctx context.Context, id string) (Context, bool)
	// Put replaces the stored context for a conversation id.
	Put(ctx context.Context, id string, c Context)
	// Sweep removes conversations untouched for longer than TTL relative
	// to now, returning how many were removed.
	Sweep(ctx context.Context, now time.Time) int
}
