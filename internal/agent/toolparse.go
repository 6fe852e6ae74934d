package agent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/solarflow/solarflow/internal/models"
)

// toolCallPattern matches the invocation grammar the decision prompt asks
// the model to emit: USE_TOOL[name](key=value, key=value, ...).
var toolCallPattern = regexp.MustCompile(`USE_TOOL\[([A-Za-z0-9_.-]+)\]\(([^)]*)\)`)

// ExtractToolCalls parses every recognizable tool invocation out of
// free-form decision text. Zero matches means the query is purely
// informational. The parser is deliberately isolated here so the grammar
// can evolve without touching the engine's control flow.
func ExtractToolCalls(text string) []models.ToolCall {
	matches := toolCallPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	calls := make([]models.ToolCall, 0, len(matches))
	for _, m := range matches {
		calls = append(calls, models.ToolCall{
			Name:       m[1],
			Parameters: parseParameters(m[2]),
		})
	}
	return calls
}

func parseParameters(raw string) map[string]interface{} {
	params := make(map[string]interface{})
	for _, pair := range splitPairs(raw) {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		params[key] = sniffValue(strings.TrimSpace(value))
	}
	return params
}

// splitPairs splits a parameter list on commas outside quotes, so quoted
// string values may contain commas.
func splitPairs(raw string) []string {
	var pairs []string
	var quote byte
	start := 0
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ',':
			pairs = append(pairs, raw[start:i])
			start = i + 1
		}
	}
	return append(pairs, raw[start:])
}

// sniffValue types a literal by its syntax: true/false, all-digit integer,
// decimal-point numeric, else string. Surrounding quotes are stripped from
// strings.
func sniffValue(raw string) interface{} {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if strings.ContainsAny(raw, ".eE") {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	if len(raw) >= 2 {
		if (raw[0] == '"' && raw[len(raw)-1] == '"') || (raw[0] == '\'' && raw[len(raw)-1] == '\'') {
			return raw[1 : len(raw)-1]
		}
	}
	return raw
}
