package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// Label and relationship tokens are pulled out with patterns, not a real
// Cypher parser. Substrings inside string literals can both over- and
// under-match; this is a best-effort static guard.
var (
	nodePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\([^)]*:(\w+)`), // (n:Label) or (:Label)
		regexp.MustCompile(`\b:(\w+)\s*\(`), // :Label before an opening paren
	}
	relPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\[:(\w+)`),    // [:REL_TYPE
		regexp.MustCompile(`-\[:(\w+)\]`), // -[:REL_TYPE]-
		regexp.MustCompile(`\[r:(\w+)`),   // [r:REL_TYPE
	}
)

// Validate checks a candidate query against the schema allow-lists and the
// forbidden write operations. It returns false with a human-readable
// reason naming the first offending token.
func Validate(query string) (bool, string) {
	upper := strings.ToUpper(query)

	for _, op := range ForbiddenOps {
		if strings.Contains(upper, op) {
			return false, fmt.Sprintf("query contains forbidden operation: %s. Only read queries allowed.", op)
		}
	}

	allowedNodes := upperSet(Labels)
	seen := make(map[string]bool)
	for _, p := range nodePatterns {
		for _, m := range p.FindAllStringSubmatch(query, -1) {
			token := m[1]
			key := strings.ToUpper(token)
			if seen[key] {
				continue
			}
			seen[key] = true
			if !allowedNodes[key] {
				return false, fmt.Sprintf("invalid node label '%s'. Allowed: %s", token, strings.Join(Labels, ", "))
			}
		}
	}

	allowedRels := upperSet(RelTypes)
	seen = make(map[string]bool)
	for _, p := range relPatterns {
		for _, m := range p.FindAllStringSubmatch(query, -1) {
			token := m[1]
			key := strings.ToUpper(token)
			if seen[key] {
				continue
			}
			seen[key] = true
			if !allowedRels[key] {
				return false, fmt.Sprintf("invalid relationship type '%s'. Allowed: %s", token, strings.Join(RelTypes, ", "))
			}
		}
	}

	return true, ""
}

func upperSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[strings.ToUpper(s)] = true
	}
	return set
}
