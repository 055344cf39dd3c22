package chatbot

import (
	"context"
	"fmt"
	"time"

	"github.com/smallnest/stockgraph/intent"
	"github.com/smallnest/stockgraph/schema"
	"github.com/smallnest/stockgraph/session"
)

// intentExplanation tags methodology-explanation turns, which are neither
// fresh data queries nor plain chit-chat.
const intentExplanation = intent.Intent("explanation")

// methodologyByType explains, per query type, how the previous answer was
// derived. Deterministic; no model call needed.
var methodologyByType = map[schema.QueryType]string{
	schema.QueryTrend:       "I aggregated daily closing prices over the time dimension nodes (years or quarters) and averaged them per period to show the trend.",
	schema.QueryComparison:  "I compared the stored yearly performance figures (return percentage, start and end price) of each company for the same year.",
	schema.QueryCorrelation: "I read precomputed pairwise price correlations between companies and ranked them by absolute correlation strength.",
	schema.QuerySimilarity:  "I used precomputed node-similarity scores between companies, which reflect how similarly their prices move.",
	schema.QueryCentrality:  "I ranked companies by their precomputed PageRank score, which measures how central a company is in the correlation network.",
	schema.QueryCommunity:   "I grouped companies by their precomputed community id, which clusters companies whose prices move together.",
	schema.QueryGeneral:     "I matched the company and its related price records in the graph and read the requested fields directly.",
}

// explanationTurn answers a short how/why question about the previous
// data answer by describing the query that produced it, instead of
// generating a fresh query.
func (b *Bot) explanationTurn(ctx context.Context, question, convID string, conv session.Context, start time.Time) Response {
	method, ok := methodologyByType[conv.LastQueryType]
	if !ok {
		method = methodologyByType[schema.QueryGeneral]
	}

	text := fmt.Sprintf("%s To get that answer I ran this graph query:\n\n%s", method, conv.LastQuery)
	if conv.LastRowCount > 0 {
		text += fmt.Sprintf("\n\nIt returned %d record(s), and the answer was built only from that data.", conv.LastRowCount)
	}

	now := b.now()
	conv.LastQuestion = question
	conv.LastAnswer = text
	conv.Timestamp = now
	b.sessions.Put(ctx, convID, conv)
	b.sessions.Sweep(ctx, now)

	return Response{
		Answer:           text,
		Intent:           intentExplanation,
		QueryType:        conv.LastQueryType,
		GeneratedQuery:   conv.LastQuery,
		ConversationID:   convID,
		IsFollowUp:       true,
		ProcessingTimeMS: b.now().Sub(start).Milliseconds(),
	}
}
