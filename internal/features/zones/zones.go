// Package zones holds the static reference table of alert zones and their
// centroids. Zones are the addressing unit for subscriptions and alerts; the
// table is compiled in and immutable at runtime.
package zones

import (
	"math"
	"strings"
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Region groups zones for the selection keyboards.
type Region struct {
	Key   string
	Name  string
	Zones []string
}

// Regions in display order.
var Regions = []Region{
	{Key: "central", Name: "Central", Zones: []string{
		"Tanjong Pagar", "Chinatown", "Bugis", "Orchard", "Tiong Bahru",
	}},
	{Key: "east", Name: "East", Zones: []string{
		"Katong", "Bedok", "Tampines", "Pasir Ris",
	}},
	{Key: "west", Name: "West", Zones: []string{
		"Jurong East", "Clementi", "Bukit Batok",
	}},
	{Key: "north", Name: "North", Zones: []string{
		"Ang Mo Kio", "Yishun", "Woodlands",
	}},
}

// centroids maps zone name to its centroid coordinate.
var centroids = map[string]Coordinate{
	"Tanjong Pagar": {1.2764, 103.8460},
	"Chinatown":     {1.2838, 103.8433},
	"Bugis":         {1.3009, 103.8559},
	"Orchard":       {1.3048, 103.8318},
	"Tiong Bahru":   {1.2860, 103.8270},
	"Katong":        {1.3039, 103.9020},
	"Bedok":         {1.3240, 103.9301},
	"Tampines":      {1.3530, 103.9450},
	"Pasir Ris":     {1.3720, 103.9470},
	"Jurong East":   {1.3331, 103.7422},
	"Clementi":      {1.3151, 103.7652},
	"Bukit Batok":   {1.3490, 103.7496},
	"Ang Mo Kio":    {1.3691, 103.8454},
	"Yishun":        {1.4304, 103.8354},
	"Woodlands":     {1.4382, 103.7890},
}

// Exists reports whether the given zone name is known (exact match).
func Exists(name string) bool {
	_, ok := centroids[name]
	return ok
}

// Canonical resolves a zone name case-insensitively to its exact table entry.
// Returns "" when no zone matches.
func Canonical(name string) string {
	if Exists(name) {
		return name
	}
	for z := range centroids {
		if strings.EqualFold(z, name) {
			return z
		}
	}
	return ""
}

// RegionByKey returns the region for a keyboard callback key, or nil.
func RegionByKey(key string) *Region {
	for i := range Regions {
		if Regions[i].Key == key {
			return &Regions[i]
		}
	}
	return nil
}

// RegionOf returns the region containing the given zone, or nil.
func RegionOf(zone string) *Region {
	for i := range Regions {
		for _, z := range Regions[i].Zones {
			if z == zone {
				return &Regions[i]
			}
		}
	}
	return nil
}

// Centroid returns the centroid of a zone. The second return is false for
// unknown zones.
func Centroid(zone string) (Coordinate, bool) {
	c, ok := centroids[zone]
	return c, ok
}

// Nearest resolves a coordinate to the zone with the closest centroid and the
// distance to it in meters.
func Nearest(lat, lng float64) (string, float64) {
	best := ""
	bestDist := math.Inf(1)
	for zone, c := range centroids {
		d := haversineMeters(lat, lng, c.Lat, c.Lng)
		if d < bestDist {
			bestDist = d
			best = zone
		}
	}
	return best, bestDist
}

// haversineMeters returns the great-circle distance between two points.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadius = 6371000.0
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadius * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
