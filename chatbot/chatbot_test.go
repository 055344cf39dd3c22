package chatbot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/stockgraph/graphstore"
	"github.com/smallnest/stockgraph/intent"
	"github.com/smallnest/stockgraph/llm"
	"github.com/smallnest/stockgraph/session"
)

const testQuery = "MATCH (c:Company {symbol: $symbol})-[:HAS_PRICE]->(p:PriceDay) RETURN p.close, p.date ORDER BY p.date DESC LIMIT 1"

// scriptedModel routes by prompt shape: classification, answer synthesis,
// or query generation.
type scriptedModel struct {
	intentLabel string
	query       string
	answer      string
	genErr      error

	genCalls int
}

func (m *scriptedModel) Complete(_ context.Context, prompt string, _ llm.Options) (string, error) {
	switch {
	case strings.Contains(prompt, "Classify this question"):
		return m.intentLabel, nil
	case strings.Contains(prompt, "financial assistant chatbot"):
		return m.answer, nil
	default:
		m.genCalls++
		if m.genErr != nil {
			return "", m.genErr
		}
		return m.query, nil
	}
}

type mockExecutor struct {
	rows  []graphstore.Row
	err   error
	panic bool

	calls      int
	lastQuery  string
	lastParams map[string]any
}

func (e *mockExecutor) Query(_ context.Context, query string, params map[string]any, _ bool) ([]graphstore.Row, error) {
	e.calls++
	e.lastQuery = query
	e.lastParams = params
	if e.panic {
		panic("boom")
	}
	return e.rows, e.err
}

func (e *mockExecutor) Ping(context.Context) error { return nil }

func (e *mockExecutor) CompanyCount(context.Context) (int64, error) { return 10, nil }

var priceRows = []graphstore.Row{
	{"p.close": "150.25", "p.date": "2024-01-15"},
}

func newTestBot(model llm.Model, exec graphstore.Executor) *Bot {
	bot := New(model, exec, session.NewMemoryStore())
	bot.sleep = func(time.Duration) {}
	return bot
}

func TestAskLatestPrice(t *testing.T) {
	model := &scriptedModel{
		intentLabel: "data_query",
		query:       testQuery,
		answer:      "The latest closing price of AAPL was $150.25 on 2024-01-15.",
	}
	exec := &mockExecutor{rows: priceRows}
	bot := newTestBot(model, exec)

	resp := bot.Ask(context.Background(), Request{Question: "What is the latest price of AAPL?", ConversationID: "c1"})

	assert.Empty(t, resp.Error)
	assert.Equal(t, "The latest closing price of AAPL was $150.25 on 2024-01-15.", resp.Answer)
	assert.Equal(t, intent.DataQuery, resp.Intent)
	assert.Equal(t, testQuery, resp.GeneratedQuery)
	assert.Equal(t, "AAPL", resp.Symbol)
	assert.Equal(t, "c1", resp.ConversationID)
	assert.Greater(t, resp.Confidence, 0.5)
	assert.False(t, resp.IsFollowUp)
	require.Len(t, resp.RawData, 1)
	assert.Equal(t, "AAPL", exec.lastParams["symbol"])
}

func TestAskFollowUpResolvesNewSymbol(t *testing.T) {
	model := &scriptedModel{
		intentLabel: "data_query",
		query:       testQuery,
		answer:      "The latest closing price was $150.25.",
	}
	exec := &mockExecutor{rows: priceRows}
	bot := newTestBot(model, exec)
	ctx := context.Background()

	first := bot.Ask(ctx, Request{Question: "What is the latest price of AAPL?", ConversationID: "c1"})
	require.Empty(t, first.Error)
	require.Equal(t, "AAPL", first.Symbol)

	second := bot.Ask(ctx, Request{Question: "What about Microsoft?", ConversationID: "c1"})
	require.Empty(t, second.Error)
	assert.Equal(t, "MSFT", second.Symbol, "the named company wins over the context symbol")
	assert.Equal(t, "MSFT", exec.lastParams["symbol"])
	assert.True(t, second.IsFollowUp)
}

func TestAskFollowUpInheritsContextSymbol(t *testing.T) {
	model := &scriptedModel{
		intentLabel: "data_query",
		query:       testQuery,
		answer:      "Still $150.25.",
	}
	exec := &mockExecutor{rows: priceRows}
	bot := newTestBot(model, exec)
	ctx := context.Background()

	first := bot.Ask(ctx, Request{Question: "What is the latest price of AAPL?", ConversationID: "c1"})
	require.Empty(t, first.Error)

	second := bot.Ask(ctx, Request{Question: "and the price now?", ConversationID: "c1"})
	require.Empty(t, second.Error)
	assert.Equal(t, "AAPL", exec.lastParams["symbol"], "symbol comes from conversation context")
	assert.True(t, second.IsFollowUp)
}

func TestAskEmptyQuestion(t *testing.T) {
	exec := &mockExecutor{}
	bot := newTestBot(&scriptedModel{}, exec)

	resp := bot.Ask(context.Background(), Request{Question: "   "})
	assert.Equal(t, ErrEmptyQuestion, resp.Error)
	assert.NotEmpty(t, resp.Answer)
	assert.Zero(t, exec.calls, "empty questions never reach the graph")
}

func TestAskConversational(t *testing.T) {
	exec := &mockExecutor{}
	sessions := session.NewMemoryStore()
	bot := New(&scriptedModel{intentLabel: "conversational"}, exec, sessions)
	bot.sleep = func(time.Duration) {}
	ctx := context.Background()

	resp := bot.Ask(ctx, Request{Question: "thanks!", ConversationID: "c1"})
	assert.Empty(t, resp.Error)
	assert.Equal(t, intent.Conversational, resp.Intent)
	assert.Contains(t, resp.Answer, "welcome")
	assert.Zero(t, exec.calls)

	// The turn is still recorded in conversation context.
	conv, ok := sessions.Get(ctx, "c1")
	require.True(t, ok)
	assert.Equal(t, "thanks!", conv.LastQuestion)
	assert.Equal(t, resp.Answer, conv.LastAnswer)
	assert.False(t, conv.Timestamp.IsZero())
}

func TestAskInvalidQuestion(t *testing.T) {
	model := &scriptedModel{intentLabel: "data_query", query: "INVALID_QUESTION"}
	exec := &mockExecutor{}
	bot := newTestBot(model, exec)

	resp := bot.Ask(context.Background(), Request{Question: "what is the meaning of stock?"})
	assert.Equal(t, ErrInvalidQuery, resp.Error)
	assert.Equal(t, maxGenerateAttempts, model.genCalls)
	assert.Zero(t, exec.calls)
}

func TestAskGenerationError(t *testing.T) {
	model := &scriptedModel{intentLabel: "data_query", genErr: errors.New("rate limited")}
	bot := newTestBot(model, &mockExecutor{})

	resp := bot.Ask(context.Background(), Request{Question: "What is the latest price of AAPL?"})
	assert.Equal(t, ErrQueryGeneration, resp.Error)
	assert.Equal(t, maxGenerateAttempts, model.genCalls)
}

func TestAskDatabaseError(t *testing.T) {
	model := &scriptedModel{intentLabel: "data_query", query: testQuery}
	exec := &mockExecutor{err: errors.New("connection refused")}
	bot := newTestBot(model, exec)

	var slept []time.Duration
	bot.sleep = func(d time.Duration) { slept = append(slept, d) }

	resp := bot.Ask(context.Background(), Request{Question: "What is the latest price of AAPL?"})
	assert.Equal(t, ErrDatabase, resp.Error)
	assert.Equal(t, testQuery, resp.GeneratedQuery)
	assert.Equal(t, maxExecuteAttempts, exec.calls)
	assert.Equal(t, []time.Duration{executeRetryDelay}, slept)
}

func TestAskNoData(t *testing.T) {
	model := &scriptedModel{intentLabel: "data_query", query: testQuery}
	exec := &mockExecutor{rows: []graphstore.Row{}}
	bot := newTestBot(model, exec)

	resp := bot.Ask(context.Background(), Request{Question: "What is the latest price of AAPL?"})
	assert.Equal(t, ErrNoData, resp.Error)
	assert.Equal(t, testQuery, resp.GeneratedQuery)
	assert.Equal(t, noDataConfidence, resp.Confidence)
}

func TestAskRecoversFromPanic(t *testing.T) {
	model := &scriptedModel{intentLabel: "data_query", query: testQuery}
	exec := &mockExecutor{panic: true}
	bot := newTestBot(model, exec)

	resp := bot.Ask(context.Background(), Request{Question: "What is the latest price of AAPL?"})
	assert.Equal(t, ErrInternal, resp.Error)
	assert.NotEmpty(t, resp.Answer)
}

func TestAskExplanation(t *testing.T) {
	model := &scriptedModel{
		intentLabel: "data_query",
		query:       testQuery,
		answer:      "The latest closing price of AAPL was $150.25.",
	}
	exec := &mockExecutor{rows: priceRows}
	bot := newTestBot(model, exec)
	ctx := context.Background()

	first := bot.Ask(ctx, Request{Question: "What is the latest price of AAPL?", ConversationID: "c1"})
	require.Empty(t, first.Error)
	queriesBefore := exec.calls

	resp := bot.Ask(ctx, Request{Question: "how did you calculate that?", ConversationID: "c1"})
	assert.Empty(t, resp.Error)
	assert.Equal(t, intentExplanation, resp.Intent)
	assert.Equal(t, testQuery, resp.GeneratedQuery)
	assert.Contains(t, resp.Answer, testQuery)
	assert.True(t, resp.IsFollowUp)
	assert.Equal(t, queriesBefore, exec.calls, "explanations never run a fresh query")
}

func TestAskUpdatesContext(t *testing.T) {
	model := &scriptedModel{
		intentLabel: "data_query",
		query:       testQuery,
		answer:      "The latest closing price of AAPL was $150.25.",
	}
	sessions := session.NewMemoryStore()
	bot := New(model, &mockExecutor{rows: priceRows}, sessions)
	bot.sleep = func(time.Duration) {}
	ctx := context.Background()

	resp := bot.Ask(ctx, Request{Question: "What is the latest price of AAPL?", ConversationID: "c1"})
	require.Empty(t, resp.Error)

	conv, ok := sessions.Get(ctx, "c1")
	require.True(t, ok)
	assert.Equal(t, "AAPL", conv.LastSymbol)
	assert.Equal(t, testQuery, conv.LastQuery)
	assert.Equal(t, 1, conv.LastRowCount)
	assert.Equal(t, []string{"AAPL"}, conv.RecentSymbols)
	require.Len(t, conv.History, 1)
	assert.Equal(t, "What is the latest price of AAPL?", conv.History[0].Question)
}

func TestAskDefaultConversationID(t *testing.T) {
	model := &scriptedModel{
		intentLabel: "data_query",
		query:       testQuery,
		answer:      "answer",
	}
	bot := newTestBot(model, &mockExecutor{rows: priceRows})

	resp := bot.Ask(context.Background(), Request{Question: "What is the latest price of AAPL?"})
	assert.Equal(t, "default", resp.ConversationID)
}

func TestAskCapsRawData(t *testing.T) {
	rows := make([]graphstore.Row, maxRawRows+5)
	for i := range rows {
		rows[i] = graphstore.Row{"p.close": "150.25", "p.date": "2024-01-15"}
	}
	model := &scriptedModel{intentLabel: "data_query", query: testQuery, answer: "answer"}
	bot := newTestBot(model, &mockExecutor{rows: rows})

	resp := bot.Ask(context.Background(), Request{Question: "What is the latest price of AAPL?"})
	require.Empty(t, resp.Error)
	assert.Len(t, resp.RawData, maxRawRows)
}
