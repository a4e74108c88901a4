package browser

import (
	"strings"
)

var (
	invalidSelectorMarkers = []string{
		"not a valid selector",
		"not a valid XPath expression",
		"Unexpected token",
		"while parsing selector",
		"SyntaxError",
	}

	staleMarkers = []string{
		"not attached",
		"Node is detached",
		"JSHandle is disposed",
		"Execution context was destroyed",
		"Cannot find context with specified id",
	}
)

func isInvalidSelectorError(err error) bool {
	return containsAny(err, invalidSelectorMarkers)
}

// isStaleError matches errors raised when a handle outlives its node or its frame.
func isStaleError(err error) bool {
	return containsAny(err, staleMarkers)
}

func containsAny(err error, markers []string) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	for _, marker := range markers {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}

	return ""
}

func getInt(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}

	return 0
}
