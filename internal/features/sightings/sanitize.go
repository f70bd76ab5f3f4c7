// Package sightings — sanitize.go cleans user-provided description text.
package sightings

import (
	"regexp"
	"strings"
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)
	htmlTags     = regexp.MustCompile(`<[^>]+>`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// SanitizeDescription strips control characters and markup, collapses
// whitespace and truncates to maxLen runes. Returns "" when nothing useful
// survives the cleanup.
func SanitizeDescription(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	text = controlChars.ReplaceAllString(text, "")
	text = htmlTags.ReplaceAllString(text, "")
	text = whitespace.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) > maxLen {
		text = strings.TrimSpace(string(runes[:maxLen]))
	}
	return text
}
