package chatbot

import (
	"strings"

	"github.com/smallnest/stockgraph/graphstore"
)

// Confidence scores a response in [0,1] from the result rows, the query
// structure and the question phrasing. It is a heuristic, not a
// calibrated probability, and is exactly 0 when there are no rows.
func Confidence(rows []graphstore.Row, query, question string) float64 {
	if len(rows) == 0 {
		return 0.0
	}

	confidence := 0.5

	confidence += 0.2 // has data
	if len(rows) > 10 {
		confidence += 0.1 // substantial data
	}

	if hasExpectedFields(rows[0]) {
		confidence += 0.1
	}

	upper := strings.ToUpper(query)
	switch matches := strings.Count(upper, "MATCH"); {
	case matches == 1:
		confidence += 0.05 // simple single-hop query
	case matches > 1:
		confidence += 0.02 // multi-hop, slightly lower confidence
	}

	q := strings.ToLower(question)
	for _, w := range []string{"latest", "current", "now", "today"} {
		if strings.Contains(q, w) {
			confidence += 0.05 // clear temporal reference
			break
		}
	}

	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}

// hasExpectedFields checks the first row for close- and date-like column
// names, the shape most price answers depend on.
func hasExpectedFields(row graphstore.Row) bool {
	hasClose, hasDate := false, false
	for k := range row {
		lk := strings.ToLower(k)
		if strings.HasSuffix(lk, "close") {
			hasClose = true
		}
		if strings.HasSuffix(lk, "date") {
			hasDate = true
		}
	}
	return hasClose && hasDate
}
