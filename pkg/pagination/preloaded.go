package pagination

import (
	"context"

	"github.com/Sternrassler/cadastre-client/pkg/feature"
)

// Preloaded is a read-only source of precomputed region datasets consulted
// before any network activity. Lookup reports false when no usable
// (non-empty) dataset is known for the query.
type Preloaded interface {
	Lookup(ctx context.Context, query string) (*feature.Collection, bool)
}

// StaticDatasets is an in-memory Preloaded source keyed by query.
type StaticDatasets map[string]*feature.Collection

// Lookup implements Preloaded.
func (s StaticDatasets) Lookup(_ context.Context, query string) (*feature.Collection, bool) {
	c, ok := s[query]
	if !ok || c.Len() == 0 {
		return nil, false
	}
	return c, true
}

// Chain consults each source in order and returns the first hit.
type Chain []Preloaded

// Lookup implements Preloaded.
func (c Chain) Lookup(ctx context.Context, query string) (*feature.Collection, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if ds, ok := p.Lookup(ctx, query); ok {
			return ds, true
		}
	}
	return nil, false
}
