package util

import (
	"regexp"
	"unicode/utf8"
)

// maxLogField bounds user-controlled values (titles, provider names, emails) in log lines.
const maxLogField = 256

var controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]+`)

// SanitizeForLog collapses runs of control characters (newlines included) into a single space
// so user content cannot forge log lines, and truncates overly long values.
func SanitizeForLog(s string) string {
	if s == "" {
		return s
	}
	s = controlChars.ReplaceAllString(s, " ")
	if len(s) <= maxLogField {
		return s
	}
	cut := maxLogField
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
