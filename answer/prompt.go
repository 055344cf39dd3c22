package answer

import (
	"fmt"
	"strings"

	"github.com/smallnest/stockgraph/graphstore"
	"github.com/smallnest/stockgraph/schema"
	"github.com/smallnest/stockgraph/session"
)

// typeInstructions tailor the QA prompt per query type. Each variant
// restricts the model to the supplied rows and requires missing fields to
// be reported as unavailable rather than silently dropped.
var typeInstructions = map[schema.QueryType]string{
	schema.QueryTrend: `- Describe the price trend over time
- Highlight significant changes or patterns
- Use specific dates and prices from the data
- Be concise and factual`,
	schema.QueryComparison: `- Compare the performance between companies or time periods
- Highlight which performed better and by how much (use percentages, prices, returns)
- Calculate differences when comparing two items
- Use specific numbers from the data
- If comparing years, mention the year-over-year change`,
	schema.QueryCorrelation: `- Explain the correlation between stocks
- Interpret correlation values (positive/negative, strength)
- Mention which stocks are most/least correlated
- Explain what correlation means (how stocks move together)`,
	schema.QuerySimilarity: `- Explain which companies are similar and why
- Mention similarity scores (higher = more similar)
- Suggest why they might be similar (sector, correlation patterns)
- Be concise and factual`,
	schema.QueryCentrality: `- Explain PageRank scores (higher = more influential)
- Rank companies by importance
- Explain what makes a company central in the network
- Use specific PageRank values from the data`,
	schema.QueryCommunity: `- Explain which companies are in the same community
- Group companies by market segments
- Explain why companies are grouped together
- Use community information from the data`,
	schema.QueryGeneral: `- Answer naturally and conversationally, but use ONLY the provided data
- Include specific numbers from the data when available (prices with $, dates as YYYY-MM-DD)
- If a value is missing or null, explain that the data is not available in the database
- DO NOT make up numbers or use external knowledge`,
}

func buildQAPrompt(question string, qtype schema.QueryType, rows []graphstore.Row, conv session.Context) string {
	var ctxHint strings.Builder
	if conv.LastQuestion != "" {
		fmt.Fprintf(&ctxHint, "\nPrevious question: %s", conv.LastQuestion)
	}
	if conv.LastAnswer != "" {
		prev := conv.LastAnswer
		if r := []rune(prev); len(r) > 100 {
			prev = string(r[:100])
		}
		fmt.Fprintf(&ctxHint, "\nPrevious answer summary: %s...", prev)
	}
	if conv.LastSymbol != "" {
		fmt.Fprintf(&ctxHint, "\nCompany mentioned: %s", conv.LastSymbol)
	}

	instructions, ok := typeInstructions[qtype]
	if !ok {
		instructions = typeInstructions[schema.QueryGeneral]
	}

	return fmt.Sprintf(`You are a helpful, intelligent, and conversational financial assistant chatbot. Answer the user's question using ONLY the provided data from the knowledge graph.

CRITICAL: You MUST use ONLY the data provided below. Do NOT use external knowledge or make up numbers.

User Question: %s
%s

Data from the graph query (this is the ONLY data you can use):
%s

Instructions:
- Be conversational, friendly, and helpful BUT use ONLY the provided data
- If data is missing or shows null, explain that the data is not available rather than omitting it
- Format numbers clearly (prices with $, percentages with %%)
- Be concise but informative
%s

Answer:`, question, ctxHint.String(), formatRows(rows), instructions)
}

// formatRows renders rows compactly for the prompt.
func formatRows(rows []graphstore.Row) string {
	if len(rows) == 0 {
		return "(no rows)"
	}
	var b strings.Builder
	for i, row := range rows {
		fmt.Fprintf(&b, "%d. %s\n", i+1, describeRow(row))
	}
	return b.String()
}
