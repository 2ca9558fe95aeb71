package validator

import (
	"strconv"
	"strings"
)

func ValidateRequired(value string) bool {
	return strings.TrimSpace(value) != ""
}

// ParseOptionalInt parses a query value; empty means (0, true).
func ParseOptionalInt(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, true
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ActorOrDefault returns actor, or fallback when actor is blank.
func ActorOrDefault(actor, fallback string) string {
	if !ValidateRequired(actor) {
		return fallback
	}
	return strings.TrimSpace(actor)
}
