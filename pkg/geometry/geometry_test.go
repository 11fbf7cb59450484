package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallSquare is a closed 0.001° square at the equator.
var smallSquare = Polygon{{
	{Lon: 0, Lat: 0},
	{Lon: 0, Lat: 0.001},
	{Lon: 0.001, Lat: 0.001},
	{Lon: 0.001, Lat: 0},
	{Lon: 0, Lat: 0},
}}

func TestDistance_SamePoint(t *testing.T) {
	points := []Coordinate{
		{Lon: 0, Lat: 0},
		{Lon: 127.0276, Lat: 37.4979},
		{Lon: -179.9, Lat: -89.5},
		{Lon: 180, Lat: 90},
	}

	for _, p := range points {
		assert.Equal(t, 0.0, Distance(p, p), "Distance(%v, %v)", p, p)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	pairs := [][2]Coordinate{
		{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 1}},
		{{Lon: 126.978, Lat: 37.5665}, {Lon: 129.0756, Lat: 35.1796}},
		{{Lon: 127.1, Lat: 36.5}, {Lon: 127.1, Lat: 36.5001}},
		{{Lon: -73.9857, Lat: 40.7484}, {Lon: 2.2945, Lat: 48.8584}},
		{{Lon: 10, Lat: 20}, {Lon: -10, Lat: 20}},
	}

	for _, p := range pairs {
		assert.Equal(t, Distance(p[0], p[1]), Distance(p[1], p[0]), "pair %v", p)
	}
}

func TestDistance_OneDegreeLatitude(t *testing.T) {
	got := Distance(Coordinate{Lon: 0, Lat: 0}, Coordinate{Lon: 0, Lat: 1})

	assert.InEpsilon(t, 111195.0, got, 0.01)
	assert.InDelta(t, EarthRadius*math.Pi/180, got, 1e-6)
}

func TestDistance_KnownCities(t *testing.T) {
	seoul := Coordinate{Lon: 126.9780, Lat: 37.5665}
	busan := Coordinate{Lon: 129.0756, Lat: 35.1796}

	// Great-circle Seoul-Busan is about 325 km.
	assert.InDelta(t, 325000, Distance(seoul, busan), 5000)
}

func TestPerimeter(t *testing.T) {
	tests := []struct {
		name    string
		polygon Polygon
		want    float64
		delta   float64
	}{
		{
			name:    "nil polygon",
			polygon: nil,
			want:    0,
		},
		{
			name:    "no rings",
			polygon: Polygon{},
			want:    0,
		},
		{
			name:    "empty outer ring",
			polygon: Polygon{{}},
			want:    0,
		},
		{
			name:    "single point",
			polygon: Polygon{{{Lon: 127, Lat: 37}}},
			want:    0,
		},
		{
			name:    "one segment",
			polygon: Polygon{{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 1}}},
			want:    EarthRadius * math.Pi / 180,
			delta:   1e-6,
		},
		{
			name:    "closed square",
			polygon: smallSquare,
			want:    4 * EarthRadius * 0.001 * math.Pi / 180,
			delta:   0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Perimeter(tt.polygon), tt.delta)
		})
	}
}

func TestPerimeter_NoImplicitClosingEdge(t *testing.T) {
	open := Polygon{smallSquare[0][:4]}

	closed := Perimeter(smallSquare)
	got := Perimeter(open)

	edge := Distance(smallSquare[0][3], smallSquare[0][4])
	assert.InDelta(t, closed-edge, got, 1e-9)
	assert.Less(t, got, closed)
}

func TestPerimeter_IgnoresHoles(t *testing.T) {
	withHole := Polygon{
		smallSquare[0],
		{
			{Lon: 0.0002, Lat: 0.0002},
			{Lon: 0.0002, Lat: 0.0004},
			{Lon: 0.0004, Lat: 0.0004},
			{Lon: 0.0002, Lat: 0.0002},
		},
	}

	assert.Equal(t, Perimeter(smallSquare), Perimeter(withHole))
	assert.Equal(t, Area(smallSquare), Area(withHole))
}

func TestArea(t *testing.T) {
	tests := []struct {
		name    string
		polygon Polygon
		want    float64
	}{
		{
			name:    "nil polygon",
			polygon: nil,
			want:    0,
		},
		{
			name:    "empty outer ring",
			polygon: Polygon{{}},
			want:    0,
		},
		{
			name:    "degenerate line",
			polygon: Polygon{{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 1}, {Lon: 0, Lat: 0}}},
			want:    0,
		},
		{
			// |sum| / 2 = 1e-6 square degrees, cos(0) = 1.
			name:    "small square at equator",
			polygon: smallSquare,
			want:    1e-6 * EarthRadius * EarthRadius,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Area(tt.polygon)
			if tt.want == 0 {
				assert.Equal(t, 0.0, got)
				return
			}
			assert.InEpsilon(t, tt.want, got, 1e-9)
		})
	}
}

func TestArea_PositiveAndFinite(t *testing.T) {
	got := Area(smallSquare)

	require.False(t, math.IsNaN(got))
	require.False(t, math.IsInf(got, 0))
	assert.Greater(t, got, 0.0)
}

func TestArea_OrientationIndependent(t *testing.T) {
	reversed := make(Ring, len(smallSquare[0]))
	for i, c := range smallSquare[0] {
		reversed[len(reversed)-1-i] = c
	}

	assert.InDelta(t, Area(smallSquare), Area(Polygon{reversed}), 1e-6)
}

func TestArea_ScalesWithFirstVertexLatitude(t *testing.T) {
	// Same square shifted to 60°N: the shoelace sum changes with the raw
	// coordinates, the cosine factor uses the first vertex only.
	shifted := make(Ring, len(smallSquare[0]))
	for i, c := range smallSquare[0] {
		shifted[i] = Coordinate{Lon: c.Lon, Lat: c.Lat + 60}
	}

	var sum float64
	for i := 0; i < len(shifted)-1; i++ {
		sum += shifted[i].Lon*shifted[i+1].Lat - shifted[i+1].Lon*shifted[i].Lat
	}
	want := math.Abs(sum) / 2 * EarthRadius * EarthRadius * math.Cos(60*math.Pi/180)

	assert.InEpsilon(t, want, Area(Polygon{shifted}), 1e-9)
}

func TestMeasure(t *testing.T) {
	m := Measure(smallSquare)

	assert.Equal(t, Perimeter(smallSquare), m.Perimeter)
	assert.Equal(t, Area(smallSquare), m.Area)
	assert.Equal(t, Measurement{}, Measure(nil))
}
