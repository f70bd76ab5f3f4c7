package sightings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeDescription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "2 wardens near the market", "2 wardens near the market"},
		{"trims", "  hello  ", "hello"},
		{"strips html", "warden <b>here</b> now", "warden here now"},
		{"strips control chars", "warden\x00\x01 spotted", "warden spotted"},
		{"keeps newline as space", "line one\nline two", "line one line two"},
		{"collapses whitespace", "too   many\t\tspaces", "too many spaces"},
		{"empty after cleanup", "<br/> \x02 ", ""},
		{"unicode kept", "警察 at carpark ✅", "警察 at carpark ✅"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeDescription(tt.in, 100))
		})
	}
}

func TestSanitizeDescriptionTruncatesRunes(t *testing.T) {
	long := strings.Repeat("警", 150)
	got := SanitizeDescription(long, 100)
	assert.Equal(t, 100, len([]rune(got)))

	// Truncation trims a trailing space left at the cut.
	got = SanitizeDescription(strings.Repeat("ab ", 50), 100)
	assert.LessOrEqual(t, len([]rune(got)), 100)
	assert.False(t, strings.HasSuffix(got, " "))
}
