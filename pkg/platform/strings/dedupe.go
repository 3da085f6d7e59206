// Package strings provides string slice utilities.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
//	DedupeAndTrim([]string{"  did:ex:1 ", "did:ex:2", "did:ex:1", ""})
//	// []string{"did:ex:1", "did:ex:2"}
func DedupeAndTrim(values []string) []string {
	return DedupeExcluding(values)
}

// DedupeExcluding is DedupeAndTrim that also drops every value listed in exclude.
// Credential type lists use it to strip the generic "VerifiableCredential" type.
func DedupeExcluding(values []string, exclude ...string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values)+len(exclude))
	for _, e := range exclude {
		seen[e] = struct{}{}
	}
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
