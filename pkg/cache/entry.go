package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/cadastre-client/pkg/feature"
)

// CacheEntry represents a cached region.
type CacheEntry struct {
	// Query is the region query the entry was collected for
	Query string `json:"query"`

	// Data is the region as a GeoJSON FeatureCollection
	Data json.RawMessage `json:"data"`

	// FeatureCount is the number of features in Data
	FeatureCount int `json:"feature_count"`

	// Expires is when the cache entry becomes stale
	Expires time.Time `json:"expires"`

	// CachedAt is when we cached this region
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry encodes collection into an entry valid for ttl.
func NewEntry(query string, collection *feature.Collection, ttl time.Duration) (*CacheEntry, error) {
	data, err := collection.ToGeoJSON(false)
	if err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}

	now := time.Now()
	return &CacheEntry{
		Query:        query,
		Data:         data,
		FeatureCount: collection.Len(),
		Expires:      now.Add(ttl),
		CachedAt:     now,
	}, nil
}

// Collection decodes the cached features.
func (e *CacheEntry) Collection() (*feature.Collection, error) {
	if len(e.Data) == 0 {
		return feature.NewCollection(nil), nil
	}
	c, err := feature.DecodeCollection(e.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return c, nil
}

// IsExpired returns true if the cache entry has expired.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
