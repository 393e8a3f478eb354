package validators

import "strings"

// SanitizeString collapses runs of whitespace and caps the result at maxLen
// runes. Search terms and town names arrive straight from query strings.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 {
		return cleaned
	}
	runes := []rune(cleaned)
	if len(runes) > maxLen {
		return strings.TrimSpace(string(runes[:maxLen]))
	}
	return cleaned
}
