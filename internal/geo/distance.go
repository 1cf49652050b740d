package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// DistanceMeters returns the great-circle distance between two points.
// Both the index and the match rules use this same function, so a pair on
// the radius boundary is treated identically at build and query time.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	return orbgeo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
}

// ValidCoordinates reports whether a lat/lon pair is usable for spatial
// matching. (0,0) is the null island sentinel several registries emit for
// "unknown" and is always rejected.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	if lat == 0 && lon == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// InIndiaBounds reports whether a point falls inside the India bounding box.
// Points outside are still indexed; the count is surfaced in the merge
// report as a data-quality signal.
func InIndiaBounds(lat, lon float64) bool {
	return lat >= 6 && lat <= 38 && lon >= 68 && lon <= 98
}
