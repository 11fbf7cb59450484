// Package feature defines cadastral parcel features and their conversion
// from and to GeoJSON.
package feature

import (
	"github.com/Sternrassler/cadastre-client/pkg/geometry"
)

// Feature is a single parcel: identifier, polygon and opaque attributes.
type Feature struct {
	ID         string
	Polygon    geometry.Polygon
	Properties map[string]interface{}
}

// Collection is an ordered sequence of features.
type Collection struct {
	Features []Feature
}

// NewCollection returns a collection holding features in the given order.
func NewCollection(features []Feature) *Collection {
	return &Collection{Features: features}
}

// Len returns the number of features, treating a nil collection as empty.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Features)
}

// Measurement is the perimeter and area of a single feature.
type Measurement struct {
	ID string `json:"id"`
	geometry.Measurement
}

// Measure computes perimeter and area for every feature, preserving order.
func (c *Collection) Measure() []Measurement {
	if c == nil {
		return nil
	}

	out := make([]Measurement, len(c.Features))
	for i, f := range c.Features {
		out[i] = Measurement{
			ID:          f.ID,
			Measurement: geometry.Measure(f.Polygon),
		}
	}
	return out
}

// Totals sums perimeter and area across the collection.
func (c *Collection) Totals() geometry.Measurement {
	var total geometry.Measurement
	for _, m := range c.Measure() {
		total.Perimeter += m.Perimeter
		total.Area += m.Area
	}
	return total
}
