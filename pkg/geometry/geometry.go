// Package geometry computes parcel measurements (distance, perimeter, area)
// from WGS84 longitude/latitude polygons.
//
// All functions are pure. Rings are never closed implicitly: the closing edge
// only contributes when the input repeats its first coordinate as the last,
// which is how cadastral GeoJSON is delivered.
package geometry

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadius is the mean Earth radius in metres.
const EarthRadius = 6371000.0

// Coordinate is a (longitude, latitude) pair in degrees.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Ring is an ordered sequence of coordinates.
type Ring []Coordinate

// Polygon is a sequence of rings. Ring 0 is the outer boundary; the remaining
// rings are holes and are ignored by Perimeter and Area.
type Polygon []Ring

// Outer returns the outer ring, or nil for a polygon without rings.
func (p Polygon) Outer() Ring {
	if len(p) == 0 {
		return nil
	}
	return p[0]
}

// Measurement holds the derived measurements of a polygon.
type Measurement struct {
	// Perimeter in metres
	Perimeter float64 `json:"perimeter_m"`
	// Area in square metres
	Area float64 `json:"area_m2"`
}

// Distance returns the great-circle distance between a and b in metres using
// the haversine formula.
func Distance(a, b Coordinate) float64 {
	// Canonical operand order keeps the result bit-identical when swapped.
	if b.Lat < a.Lat || (b.Lat == a.Lat && b.Lon < a.Lon) {
		a, b = b, a
	}
	return latLng(a).Distance(latLng(b)).Radians() * EarthRadius
}

// Perimeter returns the length of the outer ring in metres, summing each
// consecutive coordinate pair in order.
func Perimeter(p Polygon) float64 {
	ring := p.Outer()

	var total float64
	for i := 0; i < len(ring)-1; i++ {
		total += Distance(ring[i], ring[i+1])
	}
	return total
}

// Area returns the approximate area of the outer ring in square metres.
//
// The shoelace formula is applied to raw (lon, lat) degrees and the result is
// scaled by EarthRadius² × cos(latitude of the first vertex). This is a
// small-area planar approximation; it loses accuracy for polygons spanning
// large latitude ranges and is meaningless across the anti-meridian or poles.
func Area(p Polygon) float64 {
	ring := p.Outer()
	if len(ring) == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < len(ring)-1; i++ {
		sum += ring[i].Lon*ring[i+1].Lat - ring[i+1].Lon*ring[i].Lat
	}

	lat0 := (s1.Angle(ring[0].Lat) * s1.Degree).Radians()
	return math.Abs(sum) / 2 * EarthRadius * EarthRadius * math.Cos(lat0)
}

// Measure returns both the perimeter and the area of p.
func Measure(p Polygon) Measurement {
	return Measurement{
		Perimeter: Perimeter(p),
		Area:      Area(p),
	}
}

func latLng(c Coordinate) s2.LatLng {
	return s2.LatLngFromDegrees(c.Lat, c.Lon)
}
