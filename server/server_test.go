package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/stockgraph/chatbot"
	"github.com/smallnest/stockgraph/graphstore"
	"github.com/smallnest/stockgraph/llm"
	"github.com/smallnest/stockgraph/session"
)

type stubModel struct{}

func (stubModel) Complete(_ context.Context, prompt string, _ llm.Options) (string, error) {
	if strings.Contains(prompt, "Classify this question") {
		return "data_query", nil
	}
	if strings.Contains(prompt, "financial assistant chatbot") {
		return "The latest closing price of AAPL was $150.25 on 2024-01-15.", nil
	}
	return "MATCH (c:Company {symbol: $symbol})-[:HAS_PRICE]->(p:PriceDay) RETURN p.close, p.date ORDER BY p.date DESC LIMIT 1", nil
}

type stubExecutor struct {
	rows    []graphstore.Row
	pingErr error
	count   int64
}

func (e *stubExecutor) Query(context.Context, string, map[string]any, bool) ([]graphstore.Row, error) {
	return e.rows, nil
}

func (e *stubExecutor) Ping(context.Context) error { return e.pingErr }

func (e *stubExecutor) CompanyCount(context.Context) (int64, error) { return e.count, nil }

func newTestServer(exec *stubExecutor) http.Handler {
	bot := chatbot.New(stubModel{}, exec, session.NewMemoryStore())
	return Router(New(bot, exec))
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestChatEndpoint(t *testing.T) {
	exec := &stubExecutor{rows: []graphstore.Row{{"p.close": "150.25", "p.date": "2024-01-15"}}, count: 10}
	h := newTestServer(exec)

	w := postChat(t, h, `{"question": "What is the latest price of AAPL?", "conversation_id": "c1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp chatbot.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Error)
	assert.Contains(t, resp.Answer, "$150.25")
	assert.Equal(t, "c1", resp.ConversationID)
	assert.Greater(t, resp.Confidence, 0.5)
}

func TestChatEndpointEmptyQuestion(t *testing.T) {
	h := newTestServer(&stubExecutor{})

	w := postChat(t, h, `{"question": ""}`)
	require.Equal(t, http.StatusOK, w.Code, "pipeline failures are not transport failures")

	var resp chatbot.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "empty_question", resp.Error)
	assert.NotEmpty(t, resp.Answer)
}

func TestChatEndpointBadJSON(t *testing.T) {
	h := newTestServer(&stubExecutor{})

	w := postChat(t, h, `{"question": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "bad_request", resp["error"])
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(&stubExecutor{count: 10})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotContains(t, body, "graph", "plain health check skips the graph")
}

func TestHealthEndpointVerify(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := newTestServer(&stubExecutor{count: 10})
		req := httptest.NewRequest(http.MethodGet, "/health?verify=1", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		graph := body["graph"].(map[string]any)
		assert.Equal(t, true, graph["connected"])
		assert.Equal(t, float64(10), graph["companies"])
	})

	t.Run("unreachable graph degrades", func(t *testing.T) {
		h := newTestServer(&stubExecutor{pingErr: errors.New("refused")})
		req := httptest.NewRequest(http.MethodGet, "/health?verify=1", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "degraded", body["status"])
	})

	t.Run("empty graph degrades", func(t *testing.T) {
		h := newTestServer(&stubExecutor{count: 0})
		req := httptest.NewRequest(http.MethodGet, "/health?verify=1", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "degraded", body["status"])
	})
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(&stubExecutor{})

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
