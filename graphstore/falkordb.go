package graphstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const queryTimeout = 30 * time.Second

// FalkorDB executes Cypher against a FalkorDB graph over the Redis
// protocol.
type FalkorDB struct {
	client    redis.UniversalClient
	graphName string
}

var _ Executor = (*FalkorDB)(nil)

// NewFalkorDB connects using a falkordb://host:port/graph_name URL.
func NewFalkorDB(connectionString string) (*FalkorDB, error) {
	u, err := url.Parse(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}
	addr := u.Host
	if addr == "" {
		return nil, fmt.Errorf("invalid connection string: missing host")
	}
	graphName := strings.TrimPrefix(u.Path, "/")
	if graphName == "" {
		graphName = "stocks"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	return &FalkorDB{client: client, graphName: graphName}, nil
}

// NewFalkorDBFromClient wraps an existing Redis client.
func NewFalkorDBFromClient(client redis.UniversalClient, graphName string) *FalkorDB {
	return &FalkorDB{client: client, graphName: graphName}
}

// Query executes a Cypher query. Parameters are passed with a CYPHER
// prefix so the graph engine binds them server-side.
func (f *FalkorDB) Query(ctx context.Context, query string, params map[string]any, readOnly bool) ([]Row, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	command := "GRAPH.QUERY"
	if readOnly {
		command = "GRAPH.RO_QUERY"
	}
	full := cypherParams(params) + query

	res, err := f.client.Do(ctx, command, f.graphName, full).Result()
	if err != nil {
		return nil, err
	}
	return parseReply(res)
}

// Ping verifies the Redis connection.
func (f *FalkorDB) Ping(ctx context.Context) error {
	return f.client.Ping(ctx).Err()
}

// CompanyCount counts Company nodes for the data-presence health check.
func (f *FalkorDB) CompanyCount(ctx context.Context) (int64, error) {
	rows, err := f.Query(ctx, "MATCH (c:Company) RETURN COUNT(c) AS count", nil, true)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	switch v := rows[0]["count"].(type) {
	case int64:
		return v, nil
	case string:
		var n int64
		_, err := fmt.Sscan(v, &n)
		return n, err
	default:
		return 0, fmt.Errorf("unexpected count type %T", v)
	}
}

// Close releases the underlying connection.
func (f *FalkorDB) Close() error {
	return f.client.Close()
}

// cypherParams renders a CYPHER parameter prefix, e.g.
// "CYPHER symbol='AAPL' year=2022 ".
func cypherParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("CYPHER")
	for k, v := range params {
		switch x := v.(type) {
		case string:
			fmt.Fprintf(&b, " %s='%s'", k, strings.ReplaceAll(x, "'", `\'`))
		default:
			fmt.Fprintf(&b, " %s=%v", k, x)
		}
	}
	b.WriteString(" ")
	return b.String()
}

// parseReply walks the GRAPH.QUERY reply: header, result rows, then
// statistics. Replies with no result section (pure stats) yield nil rows.
func parseReply(res any) ([]Row, error) {
	reply, ok := res.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", res)
	}

	var header []string
	var rawRows []any

	switch len(reply) {
	case 3:
		if h, ok := reply[0].([]any); ok {
			header = make([]string, len(h))
			for i, col := range h {
				header[i] = fmt.Sprint(col)
			}
		}
		rawRows, _ = reply[1].([]any)
	case 2, 1:
		// Stats only; a write-shaped reply should not happen for the
		// read-only queries this service issues.
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected response length: %d", len(reply))
	}

	rows := make([]Row, 0, len(rawRows))
	for _, raw := range rawRows {
		cells, ok := raw.([]any)
		if !ok {
			continue
		}
		row := make(Row, len(cells))
		for i, cell := range cells {
			name := fmt.Sprintf("col%d", i)
			if i < len(header) {
				name = header[i]
			}
			row[name] = cell
		}
		rows = append(rows, row)
	}
	return rows, nil
}
