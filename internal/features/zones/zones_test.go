package zones

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	assert.Equal(t, "Tanjong Pagar", Canonical("Tanjong Pagar"))
	assert.Equal(t, "Tanjong Pagar", Canonical("tanjong pagar"))
	assert.Equal(t, "Bugis", Canonical("BUGIS"))
	assert.Equal(t, "", Canonical("Atlantis"))
}

func TestRegionLookups(t *testing.T) {
	region := RegionByKey("east")
	require.NotNil(t, region)
	assert.Equal(t, "East", region.Name)
	assert.Contains(t, region.Zones, "Katong")

	assert.Nil(t, RegionByKey("south"))

	region = RegionOf("Yishun")
	require.NotNil(t, region)
	assert.Equal(t, "north", region.Key)
	assert.Nil(t, RegionOf("Atlantis"))
}

func TestEveryZoneHasCentroidAndRegion(t *testing.T) {
	for _, region := range Regions {
		for _, z := range region.Zones {
			_, ok := Centroid(z)
			assert.True(t, ok, "zone %s has no centroid", z)
			assert.True(t, Exists(z))
		}
	}
}

func TestNearest(t *testing.T) {
	// Exactly on the Tanjong Pagar centroid.
	zone, dist := Nearest(1.2764, 103.8460)
	assert.Equal(t, "Tanjong Pagar", zone)
	assert.InDelta(t, 0, dist, 1)

	// Changi Airport sits far east; Pasir Ris is the closest centroid.
	zone, dist = Nearest(1.3644, 103.9915)
	assert.Equal(t, "Pasir Ris", zone)
	assert.Greater(t, dist, 2000.0)
}
