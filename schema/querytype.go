package schema

import "strings"

// QueryType classifies a question/query pair so the answer synthesizer can
// pick the matching prompt variant.
type QueryType string

const (
	QueryGeneral     QueryType = "general"
	QueryTrend       QueryType = "trend"
	QueryComparison  QueryType = "comparison"
	QueryCorrelation QueryType = "correlation"
	QuerySimilarity  QueryType = "similarity"
	QueryCentrality  QueryType = "centrality"
	QueryCommunity   QueryType = "community"
)

func anyIn(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// DetectQueryType inspects both the question text and the structure of the
// executed query. Graph-analytics types take priority, then trend,
// comparison and correlation keyword families, then structural inspection
// of the query itself, defaulting to general.
func DetectQueryType(question, query string) QueryType {
	q := strings.ToLower(question)
	upper := strings.ToUpper(query)

	if strings.Contains(upper, "GDS_SIMILAR") || anyIn(q, "similar to", "similar companies", "similar stocks") {
		return QuerySimilarity
	}
	if strings.Contains(upper, "PAGERANK") || anyIn(q, "influential", "pagerank", "central", "importance", "top companies by") {
		return QueryCentrality
	}
	if strings.Contains(upper, "COMMUNITY") || anyIn(q, "same group", "same community", "same segment", "in the same") {
		return QueryCommunity
	}
	if anyIn(q, "trend", "over time", "historical", "chart", "graph", "growth", "change over", "evolution", "last 5 years", "last 3 years") {
		return QueryTrend
	}
	if anyIn(q, "compare", "vs", "versus", "better", "outperform", "difference", "worse", "beaten") {
		return QueryComparison
	}
	if anyIn(q, "correlat", "relationship between", "most correlated") {
		return QueryCorrelation
	}
	if anyIn(q, "moves with", "moves together", "move with", "similar stocks", "similar companies") {
		return QuerySimilarity
	}

	switch {
	case strings.Contains(upper, "CORRELATED_WITH"):
		return QueryCorrelation
	case strings.Contains(upper, "PERFORMED_IN") && strings.Count(upper, "MATCH") > 1:
		return QueryComparison
	case anyIn(upper, "IN_QUARTER", "IN_MONTH", "IN_YEAR") && anyIn(upper, "AVG", "GROUP BY"):
		return QueryTrend
	}

	return QueryGeneral
}
