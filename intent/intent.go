// Package intent routes incoming questions: data questions go to query
// generation, chit-chat is answered directly, and ambiguous cases fall
// back to a single closed-label model call.
package intent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smallnest/stockgraph/llm"
	"github.com/smallnest/stockgraph/log"
	"github.com/smallnest/stockgraph/session"
)

// Intent is one of the four terminal classifications.
type Intent string

const (
	DataQuery      Intent = "data_query"
	Conversational Intent = "conversational"
	Clarification  Intent = "clarification"
	Confirmation   Intent = "confirmation"
)

// Result carries the intent plus its sub-type ("greeting"/"general" for
// conversational intents).
type Result struct {
	Intent  Intent
	SubType string
}

// dataKeywords force data_query classification before anything else is
// considered. "thanks for the AAPL price" is still a data question.
var dataKeywords = []string{
	"price", "stock", "share", "ticker", "company", "trading", "volume",
	"outperform", "compare", "trend", "correlat", "similar", "influential",
	"pagerank", "community", "group", "vs", "versus", "better", "worse",
	"what is", "what are", "which", "show me", "tell me", "give me",
	"how did", "how much", "when", "where",
}

var conversationalPatterns = []string{
	"are you sure", "are u sure", "really", "seriously",
	"thanks", "thank you", "thank", "thx",
	"ok", "okay", "got it", "understood",
	"what do you mean", "what does that mean", "explain",
	"can you repeat", "say that again", "what was that",
	"yes", "no", "correct", "right", "wrong",
	"hello", "hi", "hey", "greetings",
}

var greetingWords = []string{"hello", "hi", "hey", "greetings"}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Classify determines the intent of a question. The keyword check has
// priority over conversational patterns; unmatched questions go to the
// model when one is configured, and default to data_query otherwise or on
// any model failure (fail open toward the data path).
func Classify(ctx context.Context, model llm.Model, question string, conv session.Context) Result {
	q := strings.ToLower(strings.TrimSpace(question))

	if containsAny(q, dataKeywords) {
		return Result{Intent: DataQuery}
	}

	for _, p := range conversationalPatterns {
		if !strings.Contains(q, p) {
			continue
		}
		switch {
		case containsAny(q, []string{"sure", "really", "seriously"}):
			return Result{Intent: Confirmation, SubType: "confirmation"}
		case containsAny(q, []string{"mean", "explain", "repeat"}):
			return Result{Intent: Clarification, SubType: "clarification"}
		case containsAny(q, greetingWords):
			return Result{Intent: Conversational, SubType: "greeting"}
		default:
			return Result{Intent: Conversational, SubType: "general"}
		}
	}

	if model == nil {
		return Result{Intent: DataQuery}
	}
	return classifyWithModel(ctx, model, question, conv)
}

func classifyWithModel(ctx context.Context, model llm.Model, question string, conv session.Context) Result {
	lastAnswer := conv.LastAnswer
	if lastAnswer == "" {
		lastAnswer = "No previous answer"
	}
	prompt := fmt.Sprintf(`Classify this question as one of:
- "data_query": Needs database query (e.g., "What is the price of MSFT?")
- "conversational": General chat (e.g., "thanks", "are you sure")
- "clarification": Asking about previous answer (e.g., "what do you mean?")
- "confirmation": Asking for confirmation (e.g., "are you sure?")

Question: %s
Context: %s

Respond with ONLY the intent type (data_query, conversational, clarification, or confirmation):`, question, lastAnswer)

	out, err := model.Complete(ctx, prompt, llm.Options{
		Temperature: 0,
		MaxTokens:   20,
		Timeout:     5 * time.Second,
	})
	if err != nil {
		log.Error("intent: classification call failed: %v", err)
		return Result{Intent: DataQuery}
	}

	switch Intent(strings.ToLower(strings.TrimSpace(out))) {
	case DataQuery:
		return Result{Intent: DataQuery}
	case Conversational:
		return Result{Intent: Conversational, SubType: "general"}
	case Clarification:
		return Result{Intent: Clarification, SubType: "clarification"}
	case Confirmation:
		return Result{Intent: Confirmation, SubType: "confirmation"}
	default:
		log.Warn("intent: unclear label %q, defaulting to data_query", out)
		return Result{Intent: DataQuery}
	}
}
