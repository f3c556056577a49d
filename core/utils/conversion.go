package utils

import (
	"strconv"
	"strings"
)

// ToBool interprets a flag value from a query string or environment
// variable. "1", "true", "yes" and "on" are true, case-insensitively.
func ToBool(val string) bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// ToInt parses an integer value and falls back to def when val is empty or
// malformed.
func ToInt(val string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return def
	}
	return i
}
