// Package answer renders executed query results back into natural
// language. The model call can fail; the deterministic fallback formatter
// cannot, so a request always ends with answer text.
package answer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smallnest/stockgraph/graphstore"
	"github.com/smallnest/stockgraph/llm"
	"github.com/smallnest/stockgraph/log"
	"github.com/smallnest/stockgraph/schema"
	"github.com/smallnest/stockgraph/session"
)

const (
	qaTimeout   = 15 * time.Second
	qaMaxTokens = 300
)

// Synthesizer produces the final natural-language answer.
type Synthesizer struct {
	model llm.Model
}

// NewSynthesizer creates a Synthesizer. A nil model is allowed; every
// answer then comes from the fallback formatter.
func NewSynthesizer(model llm.Model) *Synthesizer {
	return &Synthesizer{model: model}
}

// Synthesize builds a type-specific prompt over the result rows and asks
// the model for an answer. On any model failure it falls back to the
// deterministic formatter; it never returns an empty answer for non-empty
// rows.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, qtype schema.QueryType, rows []graphstore.Row, query string, conv session.Context) string {
	if s.model == nil {
		log.Warn("answer: no model configured, using fallback formatter")
		return Fallback(rows)
	}

	if qtype == schema.QueryGeneral {
		qtype = schema.DetectQueryType(question, query)
	}

	prompt := buildQAPrompt(question, qtype, rows, conv)
	out, err := s.model.Complete(ctx, prompt, llm.Options{
		Temperature: 0,
		MaxTokens:   qaMaxTokens,
		Timeout:     qaTimeout,
	})
	if err != nil {
		log.Error("answer: synthesis call failed: %v", err)
		return Fallback(rows)
	}
	return out
}

// Fallback formats an answer directly from the data. Single price-shaped
// rows become a templated sentence; anything else reports what was found.
func Fallback(rows []graphstore.Row) string {
	if len(rows) == 0 {
		return "I couldn't find any data matching your question."
	}

	first := rows[0]
	closeVal, hasClose := fieldLike(first, "close")
	dateVal, hasDate := fieldLike(first, "date")

	if hasClose {
		answer := "The latest price"
		if hasDate {
			answer += fmt.Sprintf(" on %s", formatValue(dateVal))
		}
		if f, ok := asFloat(closeVal); ok {
			answer += fmt.Sprintf(" was $%.2f", f)
		} else {
			answer += fmt.Sprintf(" was $%v", closeVal)
		}
		if vol, ok := fieldLike(first, "volume"); ok {
			if f, ok := asFloat(vol); ok {
				answer += fmt.Sprintf(". Volume: %d shares", int64(f))
			}
		}
		return answer + "."
	}

	if len(rows) == 1 {
		return fmt.Sprintf("I found one matching record: %s.", describeRow(first))
	}
	return fmt.Sprintf("I found %d matching records. The first is: %s.", len(rows), describeRow(first))
}

// fieldLike finds a column whose name ends with the given suffix, so both
// "p.close" and "close" match.
func fieldLike(row graphstore.Row, suffix string) (any, bool) {
	for k, v := range row {
		if strings.HasSuffix(strings.ToLower(k), suffix) && v != nil {
			return v, true
		}
	}
	return nil, false
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func formatValue(v any) string {
	return fmt.Sprint(v)
}

func describeRow(row graphstore.Row) string {
	parts := make([]string, 0, len(row))
	for k, v := range row {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ", ")
}
