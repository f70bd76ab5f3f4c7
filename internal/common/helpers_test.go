package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatClockSGT(t *testing.T) {
	// 07:04 UTC is 15:04 in Singapore.
	ts := time.Date(2026, 8, 30, 7, 4, 0, 0, time.UTC)
	assert.Equal(t, "03:04 PM SGT", FormatClockSGT(ts))
	assert.Equal(t, "2026-08-30 03:04 PM SGT", FormatDateTimeSGT(ts))
	assert.Equal(t, "08/30 03:04 PM", FormatShortSGT(ts))
}

func TestMinutesAgo(t *testing.T) {
	assert.Equal(t, 5, MinutesAgo(time.Now().Add(-5*time.Minute-10*time.Second)))
	assert.Equal(t, 0, MinutesAgo(time.Now().Add(30*time.Second)))
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "1 report", Pluralize(1, "report"))
	assert.Equal(t, "0 reports", Pluralize(0, "report"))
	assert.Equal(t, "3 reports", Pluralize(3, "report"))
}
