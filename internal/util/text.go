package util

import (
	"regexp"
	"strings"
)

var (
	reSpaces     = regexp.MustCompile(`\s+`)
	reFileUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

func NormalizeSpaces(input string) string {
	s := strings.ReplaceAll(input, "\u00A0", " ")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// SearchTokens lowercases a query and splits it on whitespace.
func SearchTokens(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

func SanitizeFilename(input string) string {
	out := strings.Trim(reFileUnsafe.ReplaceAllString(input, "_"), "_")
	if len(out) > 120 {
		out = out[:120]
	}
	if out == "" {
		return "source"
	}
	return out
}
