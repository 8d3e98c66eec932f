package utils

import "unicode/utf8"

// Truncate shortens s to maxLen characters and appends "..." when it cuts.
// It counts runes so multi-byte text is never split mid-character.
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
