package validators

import "strings"

// SanitizeString trims input, collapses inner whitespace runs to one space
// and caps the result at maxLen runes. Receipt text often pads columns
// with repeated spaces, so "GREAT   VALUE" and "GREAT VALUE" compare equal.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 {
		return cleaned
	}
	runes := []rune(cleaned)
	if len(runes) <= maxLen {
		return cleaned
	}
	return strings.TrimSpace(string(runes[:maxLen]))
}
