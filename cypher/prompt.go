package cypher

import (
	"fmt"
	"strings"

	"github.com/smallnest/stockgraph/schema"
	"github.com/smallnest/stockgraph/session"
)

// complexKeywords switch generation to the strict schema: multi-hop,
// temporal, analytics and sector questions need the full description.
var complexKeywords = []string{
	"outperform", "compare", "trend", "correlat", "similar", "influential",
	"pagerank", "community", "group", "vs", "versus", "better", "worse",
	"moves with", "moves together", "move with", "similar stocks", "similar companies",
	"same group", "market segment", "important", "central",
	"sector", "industry", "belong to", "same sector", "which sector", "what sector",
}

const fewShotExamples = `FEW-SHOT EXAMPLES:

Example 1 - Latest Price:
Question: "What is the latest price of MSFT?"
Query: MATCH (c:Company {symbol: $symbol})-[:HAS_PRICE]->(p:PriceDay)
      RETURN p.date, p.close, p.volume
      ORDER BY p.date DESC
      LIMIT 1

Example 2 - Price History:
Question: "Show me AAPL prices in 2022"
Query: MATCH (c:Company {symbol: $symbol})-[:HAS_PRICE]->(p:PriceDay)
      WHERE p.date >= date('2022-01-01') AND p.date <= date('2022-12-31')
      RETURN p.date, p.close
      ORDER BY p.date

Example 3 - Company List:
Question: "What companies are available?"
Query: MATCH (c:Company)
      RETURN c.symbol
      LIMIT 10

Example 4 - Performance Comparison (Multi-hop):
Question: "Which stock outperformed AAPL in 2022?"
Query: MATCH (c1:Company {symbol: $symbol})-[r1:PERFORMED_IN]->(y:Year {year: $year})
      MATCH (c2:Company)-[r2:PERFORMED_IN]->(y)
      WHERE c2.symbol <> c1.symbol AND r2.return_pct > r1.return_pct
      RETURN c2.symbol, r2.return_pct AS return_pct
      ORDER BY r2.return_pct DESC
      LIMIT 5

Example 5 - Correlation Query:
Question: "Which stocks are most correlated with TSLA?"
Query: MATCH (c1:Company {symbol: $symbol})-[r:CORRELATED_WITH]-(c2:Company)
      RETURN c2.symbol, r.correlation
      ORDER BY ABS(r.correlation) DESC
      LIMIT 5

Example 6 - Stocks That Move Together (Similarity):
Question: "Which stocks move together with Microsoft?"
Query: MATCH (c1:Company {symbol: $symbol})-[r:GDS_SIMILAR]-(c2:Company)
      RETURN c2.symbol AS similar_stock, r.score AS similarity_score
      ORDER BY r.score DESC
      LIMIT 5

Example 7 - Sector Query:
Question: "What sector does Apple belong to?"
Query: MATCH (c:Company {symbol: $symbol})-[:IN_SECTOR]->(s:Sector)
      RETURN c.symbol, s.name AS sector

Example 8 - Companies in Same Sector:
Question: "What other companies are in the same sector as Apple?"
Query: MATCH (c1:Company {symbol: $symbol})-[:IN_SECTOR]->(s:Sector)
      MATCH (c2:Company)-[:IN_SECTOR]->(s)
      WHERE c1 <> c2
      RETURN c2.symbol, s.name AS sector
      ORDER BY c2.symbol
      LIMIT 10

Example 9 - PageRank Query:
Question: "What are the most influential companies?"
Query: MATCH (c:Company)
      WHERE c.pagerank IS NOT NULL
      RETURN c.symbol, c.pagerank
      ORDER BY c.pagerank DESC
      LIMIT 3

Example 10 - Community Query:
Question: "What companies are in the same group as MSFT?"
Query: MATCH (c1:Company {symbol: $symbol})
      WHERE c1.community IS NOT NULL
      MATCH (c2:Company)
      WHERE c2.community = c1.community AND c2.symbol <> c1.symbol
      RETURN c2.symbol

Example 11 - Temporal Trend (time dimensions):
Question: "Show me AAPL price trend over the last 5 years"
Query: MATCH (c:Company {symbol: $symbol})-[:HAS_PRICE]->(p:PriceDay)-[:IN_YEAR]->(y:Year)
      WHERE y.year >= date().year - 5
      WITH y.year AS year, AVG(p.close) AS avg_price, MIN(p.close) AS min_price, MAX(p.close) AS max_price
      RETURN year, avg_price, min_price, max_price
      ORDER BY year

Example 12 - Year-over-Year Performance:
Question: "How did NVDA perform in 2022 vs 2023?"
Query: MATCH (c:Company {symbol: $symbol})-[r:PERFORMED_IN]->(y:Year)
      WHERE y.year IN [2022, 2023]
      RETURN y.year, r.return_pct
      ORDER BY y.year`

// buildPrompt assembles the generation prompt: schema, few-shot examples,
// the question, and a context block summarizing the conversation so far.
func buildPrompt(question string, conv session.Context) string {
	schemaText := schema.Compact
	if containsAny(strings.ToLower(question), complexKeywords) || !conv.Empty() {
		schemaText = schema.Strict
	}

	var ctxHint strings.Builder
	if len(conv.History) > 0 {
		ctxHint.WriteString("\nCONVERSATION CONTEXT:\n")
		start := 0
		if len(conv.History) > 3 {
			start = len(conv.History) - 3
		}
		for _, ex := range conv.History[start:] {
			if ex.Question != "" {
				fmt.Fprintf(&ctxHint, "User asked: %s\n", ex.Question)
			}
			if ex.Answer != "" {
				fmt.Fprintf(&ctxHint, "Bot answered: %s...\n", truncate(ex.Answer, 80))
			}
		}
	}
	if len(conv.RecentSymbols) > 0 {
		fmt.Fprintf(&ctxHint, "\nRecently discussed companies: %s", strings.Join(conv.RecentSymbols, ", "))
	}
	if conv.LastSymbol != "" {
		fmt.Fprintf(&ctxHint, "\nLast symbol mentioned: %s", conv.LastSymbol)
		fmt.Fprintf(&ctxHint, "\nIf the question doesn't specify a symbol, use %s.", conv.LastSymbol)
	}

	return fmt.Sprintf(`You are an intelligent Cypher query generator for a stock price knowledge graph.
You understand conversation context and can generate appropriate queries based on what was discussed before.

%s

%s

User Question: %s
%s

CRITICAL RULES:
1. Return ONLY a valid Cypher query, no explanations, no markdown code blocks, no backticks
2. Use ONLY the node types and relationships defined in the schema above
3. For multi-hop queries, use multiple MATCH clauses connected by relationships
4. For temporal queries, use time dimension nodes (Year, Quarter, Month) via IN_YEAR, IN_QUARTER, IN_MONTH
5. For comparisons, use PERFORMED_IN relationships to Year nodes
6. For correlations or "moves with" questions, prefer GDS_SIMILAR over CORRELATED_WITH
7. For PageRank questions ("influential", "important", "central"), use the Company.pagerank property
8. For community/group questions, use the Company.community property
9. For sector questions, use the IN_SECTOR relationship
10. ALWAYS use the $symbol parameter (do NOT hardcode symbol values unless absolutely necessary)
11. For trends over time, use aggregation functions (AVG, MIN, MAX)
12. If the question cannot be answered with the schema, return: "INVALID_QUESTION"

Generate the Cypher query now:`, schemaText, fewShotExamples, question, ctxHint.String())
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
