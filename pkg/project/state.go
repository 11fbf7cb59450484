// Package project persists a named set of measured parcels ("lands").
//
// Two stores are provided: RedisStore keeps the state under a single key with
// a byte quota, and FileStore writes it as an indented JSON document. The
// file store has no size limit and is the export path once a project
// outgrows the quota.
package project

import (
	"fmt"
	"time"

	"github.com/Sternrassler/cadastre-client/pkg/feature"
	"github.com/Sternrassler/cadastre-client/pkg/geometry"
)

// Land is a measured parcel.
type Land struct {
	ID         string                 `json:"id"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Polygon    geometry.Polygon       `json:"polygon"`

	// Perimeter in metres
	Perimeter float64 `json:"perimeter_m"`

	// Area in square metres
	Area float64 `json:"area_m2"`
}

// State is a persisted project.
type State struct {
	Name      string          `json:"projectName"`
	Lands     map[string]Land `json:"lands"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// NewState creates a project named name holding the features of collection.
func NewState(name string, collection *feature.Collection) *State {
	s := &State{
		Name:  name,
		Lands: make(map[string]Land, collection.Len()),
	}
	s.Add(collection)
	return s
}

// Add measures every feature of collection and stores it as a land keyed by
// feature ID, replacing lands with the same ID. Features without an ID get
// the first unused "feature-<n>" key, n starting at the current land count,
// so they never replace an existing land. It returns the number of lands
// added or replaced.
func (s *State) Add(collection *feature.Collection) int {
	if collection.Len() == 0 {
		return 0
	}
	if s.Lands == nil {
		s.Lands = make(map[string]Land, collection.Len())
	}

	for _, f := range collection.Features {
		id := f.ID
		if id == "" {
			id = s.unusedID()
		}
		m := geometry.Measure(f.Polygon)
		s.Lands[id] = Land{
			ID:         id,
			Properties: f.Properties,
			Polygon:    f.Polygon,
			Perimeter:  m.Perimeter,
			Area:       m.Area,
		}
	}
	return collection.Len()
}

func (s *State) unusedID() string {
	for n := len(s.Lands); ; n++ {
		id := fmt.Sprintf("feature-%d", n)
		if _, ok := s.Lands[id]; !ok {
			return id
		}
	}
}

// Totals sums perimeter and area over all lands.
func (s *State) Totals() geometry.Measurement {
	var total geometry.Measurement
	for _, l := range s.Lands {
		total.Perimeter += l.Perimeter
		total.Area += l.Area
	}
	return total
}

// validate checks a decoded state.
func (s *State) validate() error {
	if s.Lands == nil {
		return fmt.Errorf("%w: missing lands", ErrInvalidState)
	}
	return nil
}
