package feature

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/Sternrassler/cadastre-client/pkg/geometry"
)

// Property keys added by ToGeoJSON when measurements are requested.
const (
	PropertyPerimeter = "perimeter_m"
	PropertyArea      = "area_m2"
)

// FromGeoJSON converts decoded GeoJSON features.
//
// Polygon geometries map directly. MultiPolygon geometries map to their first
// polygon, which is the parcel body in cadastral layers. Any other geometry
// yields an empty polygon so the feature still carries its attributes.
func FromGeoJSON(features []*geojson.Feature) []Feature {
	out := make([]Feature, 0, len(features))
	for _, f := range features {
		if f == nil {
			continue
		}
		out = append(out, Feature{
			ID:         f.ID,
			Polygon:    polygonFromGeom(f.Geometry),
			Properties: f.Properties,
		})
	}
	return out
}

// DecodeFeatures decodes a JSON array of GeoJSON features.
func DecodeFeatures(data []byte) ([]Feature, error) {
	var raw []*geojson.Feature
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	return FromGeoJSON(raw), nil
}

// DecodeCollection decodes a GeoJSON FeatureCollection document.
func DecodeCollection(data []byte) (*Collection, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	return NewCollection(FromGeoJSON(fc.Features)), nil
}

// LoadFile reads a GeoJSON FeatureCollection from disk.
func LoadFile(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeCollection(data)
}

// ToGeoJSON encodes the collection as a GeoJSON FeatureCollection. With
// measurements set, each feature gets perimeter_m and area_m2 properties;
// the feature's own property map is never modified.
func (c *Collection) ToGeoJSON(measurements bool) ([]byte, error) {
	fc := &geojson.FeatureCollection{}
	if c != nil {
		fc.Features = make([]*geojson.Feature, 0, len(c.Features))
		for _, f := range c.Features {
			g, err := toGeom(f.Polygon)
			if err != nil {
				return nil, fmt.Errorf("encode feature %q: %w", f.ID, err)
			}

			props := make(map[string]interface{}, len(f.Properties)+2)
			for k, v := range f.Properties {
				props[k] = v
			}
			if measurements {
				m := geometry.Measure(f.Polygon)
				props[PropertyPerimeter] = m.Perimeter
				props[PropertyArea] = m.Area
			}

			fc.Features = append(fc.Features, &geojson.Feature{
				ID:         f.ID,
				Geometry:   g,
				Properties: props,
			})
		}
	}
	return json.Marshal(fc)
}

func polygonFromGeom(g geom.T) geometry.Polygon {
	switch t := g.(type) {
	case *geom.Polygon:
		return polygonFromCoords(t.Coords())
	case *geom.MultiPolygon:
		if t.NumPolygons() == 0 {
			return nil
		}
		return polygonFromCoords(t.Polygon(0).Coords())
	default:
		return nil
	}
}

func polygonFromCoords(coords [][]geom.Coord) geometry.Polygon {
	poly := make(geometry.Polygon, len(coords))
	for i, ring := range coords {
		r := make(geometry.Ring, len(ring))
		for j, c := range ring {
			r[j] = geometry.Coordinate{Lon: c.X(), Lat: c.Y()}
		}
		poly[i] = r
	}
	return poly
}

func toGeom(p geometry.Polygon) (geom.T, error) {
	if len(p) == 0 {
		return nil, nil
	}

	coords := make([][]geom.Coord, len(p))
	for i, ring := range p {
		coords[i] = make([]geom.Coord, len(ring))
		for j, c := range ring {
			coords[i][j] = geom.Coord{c.Lon, c.Lat}
		}
	}
	return geom.NewPolygon(geom.XY).SetCoords(coords)
}
