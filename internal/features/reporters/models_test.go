package reporters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBadgeFor(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, BadgeNew},
		{2, BadgeNew},
		{3, BadgeRegular},
		{10, BadgeRegular},
		{11, BadgeTrusted},
		{50, BadgeTrusted},
		{51, BadgeVeteran},
		{500, BadgeVeteran},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BadgeFor(tt.count), "count=%d", tt.count)
	}
}

func TestAccuracyIndicator(t *testing.T) {
	// Below the feedback floor nothing is shown, whatever the score.
	assert.Equal(t, "", Accuracy{Score: 1, Positive: 2}.Indicator(3))

	assert.Equal(t, "✅", Accuracy{Score: 0.8, Positive: 8, Negative: 2}.Indicator(3))
	assert.Equal(t, "⚠️", Accuracy{Score: 0.6, Positive: 6, Negative: 4}.Indicator(3))
	assert.Equal(t, "⚠️", Accuracy{Score: 0.5, Positive: 5, Negative: 5}.Indicator(3))
	assert.Equal(t, "❌", Accuracy{Score: 0.25, Positive: 1, Negative: 3}.Indicator(3))
}

func TestAccuracyTotal(t *testing.T) {
	assert.Equal(t, 0, Accuracy{}.Total())
	assert.Equal(t, 7, Accuracy{Positive: 4, Negative: 3}.Total())
}
