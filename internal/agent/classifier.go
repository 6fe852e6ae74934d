package agent

import "strings"

// actionKeywords mark queries that likely need a calculation or live data
// rather than a purely informational answer.
var actionKeywords = []string{
	"calculate", "compute", "estimate", "how much", "how many",
	"size", "sizing", "savings", "payback", "forecast", "weather",
	"production", "output", "generate", "kwh", "kw",
}

// IsActionOriented is a cheap keyword heuristic deciding whether a query is
// worth a model-backed tool decision at all. It errs toward true: the model
// still gets the final say, and a false positive only costs one decision
// call.
func IsActionOriented(query string) bool {
	q := strings.ToLower(query)
	for _, kw := range actionKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
