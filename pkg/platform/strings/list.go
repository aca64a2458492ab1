// Package strings normalizes comma separated configuration lists.
package strings

import (
	"strings"
)

// SplitList splits raw on sep and returns the trimmed, non-empty, unique
// parts in first-seen order. An empty raw yields nil.
func SplitList(raw, sep string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(raw, sep))
}

// DedupeAndTrim drops blanks and repeats after trimming. Case is preserved.
func DedupeAndTrim(values []string) []string {
	return normalize(values, strings.TrimSpace)
}

// DedupeAndTrimLower is DedupeAndTrim with case folding, for media types and
// other case-insensitive tokens.
func DedupeAndTrimLower(values []string) []string {
	return normalize(values, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}

func normalize(values []string, fn func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = fn(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
