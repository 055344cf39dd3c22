package intent

import (
	"strings"

	"github.com/smallnest/stockgraph/extract"
	"github.com/smallnest/stockgraph/session"
)

// Reply answers a conversational intent directly, without touching the
// graph. Confirmation and clarification replies lean on the previous
// answer when the conversation has one.
func Reply(question string, res Result, conv session.Context) string {
	q := strings.ToLower(strings.TrimSpace(question))

	if res.Intent == Confirmation {
		if conv.LastAnswer != "" {
			return "Yes, I'm confident about that. " + conv.LastAnswer
		}
		return "Yes, I'm sure about the information I provided."
	}

	if res.Intent == Clarification {
		if conv.LastAnswer != "" {
			return "Let me clarify: " + conv.LastAnswer +
				" In simpler terms, this is the most recent stock data I found in the database."
		}
		return "I'd be happy to clarify. Could you be more specific about what you'd like me to explain?"
	}

	switch {
	case res.SubType == "greeting" || containsAny(q, greetingWords):
		return "Hello! I can help you find stock prices. Ask me about any company ticker symbol."
	case containsAny(q, []string{"thanks", "thank you", "thank", "thx"}):
		return "You're welcome! Feel free to ask if you need any other stock information."
	case containsAny(q, []string{"ok", "okay", "got it", "understood"}):
		return "Great! Is there anything else you'd like to know about stock prices?"
	case containsAny(q, []string{"price", "stock", "share", "ticker", "company", "trading"}):
		return "I'm here to help with stock price information. Please specify a company name or ticker symbol (e.g., 'Apple', 'AAPL', 'Microsoft', 'MSFT')."
	default:
		return "I'm here to help with stock price information. Could you ask me a specific question about stock prices?"
	}
}

var followupIndicators = []string{
	"what about", "how about", "and", "also", "tell me more",
	"what is", "show me", "give me", "what's", "whats",
}

// IsFollowUp detects short questions that lean on the previous turn: a
// follow-up indicator in a short question, or a price/stock question with
// no extractable symbol while the context still holds one.
func IsFollowUp(question string, conv session.Context) bool {
	if conv.Empty() {
		return false
	}
	q := strings.ToLower(question)

	if len(strings.Fields(question)) <= 4 && containsAny(q, followupIndicators) {
		return true
	}

	if conv.LastSymbol != "" && extract.Symbol(question) == "" &&
		(strings.Contains(q, "price") || strings.Contains(q, "stock")) {
		return true
	}
	return false
}

var methodWords = []string{
	"calculate", "calculated", "know", "determine", "determined",
	"figure", "derive", "derived", "method", "come up", "get that", "work that out",
}

// IsExplanationQuestion recognizes short how/why questions about the
// previous data answer, which should trigger a methodology explanation
// instead of fresh query generation. Requires a prior query in context.
func IsExplanationQuestion(question string, conv session.Context) bool {
	if conv.LastQuery == "" || conv.LastQueryType == "" {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(question))
	if len(strings.Fields(q)) > 10 {
		return false
	}
	if strings.HasPrefix(q, "why") {
		return true
	}
	if (strings.Contains(q, "how") || strings.Contains(q, "what method")) && containsAny(q, methodWords) {
		return true
	}
	return false
}
