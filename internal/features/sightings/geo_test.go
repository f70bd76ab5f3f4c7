package sightings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineMeters(t *testing.T) {
	// Same point.
	assert.InDelta(t, 0, HaversineMeters(1.3, 103.8, 1.3, 103.8), 0.001)

	// Tanjong Pagar centroid to Chinatown centroid, roughly 820m.
	d := HaversineMeters(1.2764, 103.8460, 1.2838, 103.8433)
	assert.InDelta(t, 870, d, 100)

	// Symmetry.
	assert.InDelta(t,
		HaversineMeters(1.2764, 103.8460, 1.3048, 103.8318),
		HaversineMeters(1.3048, 103.8318, 1.2764, 103.8460),
		0.001)

	// ~111m per 0.001 degree of latitude at the equator.
	d = HaversineMeters(0, 103.8, 0.001, 103.8)
	assert.InDelta(t, 111, d, 1)
}
