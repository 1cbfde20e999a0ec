package utils

import "strings"

// NormalizeKey derives the canonical form of a free-text identifier: lowercase,
// trimmed, with internal whitespace runs collapsed to a single dash. The same
// transform is applied to client names, environments, transaction codes and
// invite emails, so it must be idempotent and leave email characters intact.
func NormalizeKey(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))

	if lowered == "" {
		return ""
	}

	return strings.Join(strings.Fields(lowered), "-")
}
