// Package graphstore executes Cypher queries against the knowledge graph.
// The store is a black box to the rest of the service: query and
// parameters in, rows of field-to-value mappings out.
package graphstore

import (
	"context"
)

// Row is one result record, keyed by the RETURN column names.
type Row map[string]any

// Executor runs read queries against the graph. Implementations return
// errors explicitly; the orchestrator maps them to response tags, so a
// connection failure stays distinguishable from an empty result.
type Executor interface {
	// Query executes a Cypher query with named parameters. readOnly is
	// advisory; generated queries are always read-only by contract.
	Query(ctx context.Context, query string, params map[string]any, readOnly bool) ([]Row, error)

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// CompanyCount returns the number of Company nodes, for health checks
	// verifying minimal data presence.
	CompanyCount(ctx context.Context) (int64, error)
}
