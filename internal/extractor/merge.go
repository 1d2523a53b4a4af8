package extractor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var jsonFenceRe = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// ParseResponse turns a raw LLM reply into a variables map. Markdown
// fences are stripped and the literal string "null" is normalized to a
// real null. A reply that is not a JSON object returns an error; the
// caller records the placeholder.
func ParseResponse(raw string) (map[string]interface{}, error) {
	cleaned := strings.TrimSpace(raw)

	if m := jsonFenceRe.FindStringSubmatch(cleaned); m != nil {
		cleaned = strings.TrimSpace(m[1])
	} else if strings.Contains(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, "```", ""))
	}

	var variables map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &variables); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	for key, value := range variables {
		if s, ok := value.(string); ok && strings.EqualFold(s, "null") {
			variables[key] = nil
		}
	}

	return variables, nil
}

// Placeholder is the chunk record stored when a reply stays unparsable
// after the retry.
func Placeholder(raw string) map[string]interface{} {
	runes := []rune(raw)
	if len(runes) > 500 {
		raw = string(runes[:500])
	}
	return map[string]interface{}{"erro": "resposta_invalida", "raw": raw}
}

// MergeVariables folds a chunk's variables into the accumulated set.
// Merge laws, applied per key:
//   - link and uuid are system-owned and never overwritten
//   - a null/empty incoming value keeps the accumulated one
//   - a null/empty accumulated value takes the incoming one
//   - when both are strings the longer wins
//   - a non-zero number replaces zero or null
func MergeVariables(accumulated, incoming map[string]interface{}) map[string]interface{} {
	if accumulated == nil {
		accumulated = make(map[string]interface{})
	}

	for key, value := range incoming {
		if key == "link" || key == "uuid" {
			continue
		}
		if value == nil || value == "" {
			continue
		}

		current, exists := accumulated[key]
		if !exists || current == nil || current == "" {
			accumulated[key] = value
			continue
		}

		switch v := value.(type) {
		case string:
			if cur, ok := current.(string); ok && len(v) > len(cur) {
				accumulated[key] = value
			}
		case float64:
			if v != 0 && isZeroNumber(current) {
				accumulated[key] = value
			}
		case int:
			if v != 0 && isZeroNumber(current) {
				accumulated[key] = value
			}
		}
	}

	return accumulated
}

func isZeroNumber(v interface{}) bool {
	switch n := v.(type) {
	case float64:
		return n == 0
	case int:
		return n == 0
	}
	return false
}
