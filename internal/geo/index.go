package geo

import (
	"errors"
	"sort"

	geohash "github.com/TomiHiltunen/geohash-golang"
)

// ErrNoValidCoordinates is returned when an index would be empty. The
// pipeline treats it as a degraded mode (name-only matching), not a hard
// failure.
var ErrNoValidCoordinates = errors.New("no records with valid coordinates to index")

// Point is one indexed record position.
type Point struct {
	ID  int
	Lat float64
	Lon float64
}

// Candidate is a query hit with its great-circle distance to the query
// point.
type Candidate struct {
	ID        int
	DistanceM float64
}

// Index is a geohash-bucketed spatial index over facility coordinates.
// Queries scan the query point's cell plus its eight neighbors and filter
// by true haversine distance, so results are exact within the supported
// radius and the candidate relation is symmetric: if A is within r of B
// then querying at either point finds the other.
type Index struct {
	precision  int
	maxRadiusM float64
	cells      map[string][]Point
	size       int
}

// precisionFor picks the geohash precision whose minimum cell edge covers
// the radius, so one ring of neighbors is always enough.
func precisionFor(radiusM float64) int {
	switch {
	case radiusM <= 600:
		return 6 // cells ~1220m x 610m
	case radiusM <= 4800:
		return 5 // cells ~4900m x 4900m
	default:
		return 4 // cells ~39km x 19.5km
	}
}

// Build constructs the index. maxRadiusM is the largest radius later
// queries will use; points with invalid coordinates are skipped.
func Build(points []Point, maxRadiusM float64) (*Index, error) {
	ix := &Index{
		precision:  precisionFor(maxRadiusM),
		maxRadiusM: maxRadiusM,
		cells:      make(map[string][]Point),
	}

	for _, p := range points {
		if !ValidCoordinates(p.Lat, p.Lon) {
			continue
		}
		cell := geohash.EncodeWithPrecision(p.Lat, p.Lon, ix.precision)
		ix.cells[cell] = append(ix.cells[cell], p)
		ix.size++
	}

	if ix.size == 0 {
		return nil, ErrNoValidCoordinates
	}
	return ix, nil
}

// Size returns the number of indexed points.
func (ix *Index) Size() int {
	return ix.size
}

// Query returns every indexed point within radiusM of the given position,
// sorted by distance. Radii beyond the build-time maximum are capped to it.
// The index is read-only after Build and safe for concurrent queries.
func (ix *Index) Query(lat, lon, radiusM float64) []Candidate {
	if !ValidCoordinates(lat, lon) {
		return nil
	}
	if radiusM > ix.maxRadiusM {
		radiusM = ix.maxRadiusM
	}

	center := geohash.EncodeWithPrecision(lat, lon, ix.precision)
	cells := append([]string{center}, geohash.CalculateAllAdjacent(center)...)

	var hits []Candidate
	for _, cell := range cells {
		for _, p := range ix.cells[cell] {
			d := DistanceMeters(lat, lon, p.Lat, p.Lon)
			if d <= radiusM {
				hits = append(hits, Candidate{ID: p.ID, DistanceM: d})
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].DistanceM < hits[j].DistanceM })
	return hits
}
