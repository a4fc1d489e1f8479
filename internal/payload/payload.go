// Package payload implements the response-normalization and data-extraction
// core for the analytics chat pipeline.
//
// Two backends return structurally incompatible, loosely-typed JSON; one of
// them embeds a second JSON document as a string inside a text field. This
// package reduces both shapes to one internal message schema: Normalize
// adapts an OCI-shaped payload to the canonical shape, Extract locates the
// tabular result inside any payload, and Assemble turns the result into a
// transcript message.
//
// Every function here is total over arbitrary decoded-JSON input: missing or
// oddly-typed fields are never an error, and the only permitted side effect
// is diagnostic logging.
package payload

import (
	"strconv"
	"strings"
)

const successPhrase = "Query executed successfully."

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

func stringField(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m[key].(string)
	return s, ok
}

// isNumeric reports whether v is a number or a numeric-looking string, the
// signal used to auto-select a chart's y axis.
func isNumeric(v any) bool {
	switch t := v.(type) {
	case float64, float32, int, int32, int64:
		return true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return false
		}
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	}
	return false
}
