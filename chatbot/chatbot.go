// Package chatbot orchestrates a question through the full pipeline:
// intent classification, query generation with retry, schema-validated
// execution with retry, answer synthesis, and context update. Every
// terminal path returns a complete Response; nothing escapes Ask.
package chatbot

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smallnest/stockgraph/answer"
	"github.com/smallnest/stockgraph/cypher"
	"github.com/smallnest/stockgraph/extract"
	"github.com/smallnest/stockgraph/graphstore"
	"github.com/smallnest/stockgraph/intent"
	"github.com/smallnest/stockgraph/llm"
	"github.com/smallnest/stockgraph/log"
	"github.com/smallnest/stockgraph/schema"
	"github.com/smallnest/stockgraph/session"
)

// Error tags surfaced in responses. These are the only failure modes a
// caller sees; none of them are transport-level faults.
const (
	ErrEmptyQuestion   = "empty_question"
	ErrInvalidQuery    = "invalid_query"
	ErrQueryGeneration = "query_generation_error"
	ErrDatabase        = "database_error"
	ErrNoData          = "no_data_found"
	ErrInternal        = "internal_error"
)

const (
	maxGenerateAttempts = 2
	maxExecuteAttempts  = 2
	executeRetryDelay   = 500 * time.Millisecond
	maxRawRows          = 10
	noDataConfidence    = 0.3
)

// Request is one incoming question.
type Request struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Response is the structured result of one turn. Answer is always set.
type Response struct {
	Answer           string           `json:"answer"`
	Error            string           `json:"error,omitempty"`
	Intent           intent.Intent    `json:"intent,omitempty"`
	QueryType        schema.QueryType `json:"query_type,omitempty"`
	GeneratedQuery   string           `json:"generated_query,omitempty"`
	RawData          []graphstore.Row `json:"raw_data,omitempty"`
	Symbol           string           `json:"symbol,omitempty"`
	Confidence       float64          `json:"confidence"`
	ConversationID   string           `json:"conversation_id,omitempty"`
	IsFollowUp       bool             `json:"is_followup,omitempty"`
	ProcessingTimeMS int64            `json:"processing_time_ms"`
}

// Bot wires the pipeline components together.
type Bot struct {
	model       llm.Model
	store       graphstore.Executor
	sessions    session.Store
	generator   *cypher.Generator
	synthesizer *answer.Synthesizer

	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a Bot. model may be nil; intent classification then relies
// on keywords alone and data questions fail with a generation error.
func New(model llm.Model, store graphstore.Executor, sessions session.Store) *Bot {
	return &Bot{
		model:       model,
		store:       store,
		sessions:    sessions,
		generator:   cypher.NewGenerator(model),
		synthesizer: answer.NewSynthesizer(model),
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// Ask processes one question end to end. It never panics outward and
// never returns an error; all failures become tagged responses.
func (b *Bot) Ask(ctx context.Context, req Request) (resp Response) {
	start := b.now()
	requestID := uuid.NewString()[:8]

	defer func() {
		if r := recover(); r != nil {
			log.Error("chatbot[%s]: recovered from panic: %v", requestID, r)
			resp = Response{
				Answer:           "Something went wrong while processing your question. Please try again.",
				Error:            ErrInternal,
				ProcessingTimeMS: b.now().Sub(start).Milliseconds(),
			}
		}
	}()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Response{
			Answer:           "I'm here to help! Please ask me a question about stock prices.",
			Error:            ErrEmptyQuestion,
			ProcessingTimeMS: b.now().Sub(start).Milliseconds(),
		}
	}

	convID := req.ConversationID
	if convID == "" {
		convID = "default"
	}
	conv, _ := b.sessions.Get(ctx, convID)

	log.Info("chatbot[%s]: processing question: %s", requestID, question)

	res := intent.Classify(ctx, b.model, question, conv)
	log.Info("chatbot[%s]: intent classified as %s", requestID, res.Intent)

	if res.Intent != intent.DataQuery {
		return b.conversationalTurn(ctx, question, convID, conv, res, start)
	}

	if intent.IsExplanationQuestion(question, conv) {
		return b.explanationTurn(ctx, question, convID, conv, start)
	}

	followUp := intent.IsFollowUp(question, conv)
	if followUp {
		log.Info("chatbot[%s]: follow-up detected, last symbol %q", requestID, conv.LastSymbol)
	}

	query, params, genErr := b.generateWithRetry(ctx, question, conv)
	if query == "" {
		if genErr != nil {
			return b.errorResponse(start, convID,
				"I'm having trouble processing your question. Please try rephrasing it.",
				ErrQueryGeneration)
		}
		return b.errorResponse(start, convID,
			"I couldn't understand your question. Please ask about stock prices, for example: 'What is the latest price of MSFT?' or 'Show me the price of AAPL'.",
			ErrInvalidQuery)
	}

	rows, execErr := b.executeWithRetry(ctx, query, params)
	if execErr != nil {
		r := b.errorResponse(start, convID,
			"I'm having trouble accessing the database right now. Please try again in a moment.",
			ErrDatabase)
		r.GeneratedQuery = query
		return r
	}

	if len(rows) == 0 {
		b.sessions.Sweep(ctx, b.now())
		return Response{
			Answer:           "I couldn't find any data matching your question. The company ticker might not be in our database, or the question might need to be rephrased.",
			Error:            ErrNoData,
			GeneratedQuery:   query,
			Confidence:       noDataConfidence,
			ConversationID:   convID,
			ProcessingTimeMS: b.now().Sub(start).Milliseconds(),
		}
	}

	qtype := schema.DetectQueryType(question, query)
	text := b.synthesizer.Synthesize(ctx, question, qtype, rows, query, conv)

	symbol, _ := params["symbol"].(string)
	if symbol == "" {
		symbol = extract.Symbol(question)
	}

	b.updateContext(ctx, convID, conv, question, text, query, qtype, symbol, len(rows))

	raw := rows
	if len(raw) > maxRawRows {
		raw = raw[:maxRawRows]
	}

	elapsed := b.now().Sub(start)
	log.Info("chatbot[%s]: completed in %v", requestID, elapsed)

	return Response{
		Answer:           text,
		Intent:           intent.DataQuery,
		QueryType:        qtype,
		GeneratedQuery:   query,
		RawData:          raw,
		Symbol:           symbol,
		Confidence:       Confidence(rows, query, question),
		ConversationID:   convID,
		IsFollowUp:       followUp,
		ProcessingTimeMS: elapsed.Milliseconds(),
	}
}

// generateWithRetry attempts query generation up to maxGenerateAttempts
// times. An empty query with a nil error means the model produced nothing
// usable; the last generation error, if any, is returned for tagging.
func (b *Bot) generateWithRetry(ctx context.Context, question string, conv session.Context) (string, cypher.Params, error) {
	var lastErr error
	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		query, params, err := b.generator.Generate(ctx, question, conv)
		if err != nil {
			lastErr = err
			log.Warn("chatbot: generation attempt %d/%d failed: %v", attempt, maxGenerateAttempts, err)
			continue
		}
		if query != "" {
			return query, params, nil
		}
		log.Warn("chatbot: generation attempt %d/%d produced no usable query", attempt, maxGenerateAttempts)
	}
	return "", nil, lastErr
}

// executeWithRetry runs the validated query up to maxExecuteAttempts
// times with a fixed short sleep between attempts. Queries are read-only
// by contract, so re-execution is always safe.
func (b *Bot) executeWithRetry(ctx context.Context, query string, params cypher.Params) ([]graphstore.Row, error) {
	var lastErr error
	for attempt := 1; attempt <= maxExecuteAttempts; attempt++ {
		rows, err := b.store.Query(ctx, query, params, true)
		if err == nil {
			return rows, nil
		}
		lastErr = err
		log.Warn("chatbot: execution attempt %d/%d failed: %v", attempt, maxExecuteAttempts, err)
		if attempt < maxExecuteAttempts {
			b.sleep(executeRetryDelay)
		}
	}
	return nil, lastErr
}

// conversationalTurn answers chit-chat without touching the graph, still
// recording the turn in context.
func (b *Bot) conversationalTurn(ctx context.Context, question, convID string, conv session.Context, res intent.Result, start time.Time) Response {
	text := intent.Reply(question, res, conv)

	now := b.now()
	conv.LastQuestion = question
	conv.LastAnswer = text
	conv.Timestamp = now
	b.sessions.Put(ctx, convID, conv)
	b.sessions.Sweep(ctx, now)

	return Response{
		Answer:           text,
		Intent:           res.Intent,
		ConversationID:   convID,
		IsFollowUp:       true,
		ProcessingTimeMS: b.now().Sub(start).Milliseconds(),
	}
}

// updateContext replaces the conversation snapshot after a successful
// data turn.
func (b *Bot) updateContext(ctx context.Context, convID string, prev session.Context, question, text, query string, qtype schema.QueryType, symbol string, rowCount int) {
	now := b.now()
	next := session.Context{
		LastSymbol:    symbol,
		LastQueryType: qtype,
		LastQuestion:  question,
		LastAnswer:    text,
		LastQuery:     query,
		LastRowCount:  rowCount,
		Timestamp:     now,
		History:       prev.History,
		RecentSymbols: prev.RecentSymbols,
	}
	if next.LastSymbol == "" {
		next.LastSymbol = prev.LastSymbol
	}
	next.AppendExchange(question, text, now)
	next.RememberSymbol(symbol)

	b.sessions.Put(ctx, convID, next)
	b.sessions.Sweep(ctx, now)
}

func (b *Bot) errorResponse(start time.Time, convID, text, tag string) Response {
	return Response{
		Answer:           text,
		Error:            tag,
		ConversationID:   convID,
		ProcessingTimeMS: b.now().Sub(start).Milliseconds(),
	}
}
