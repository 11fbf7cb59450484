package cache

import (
	"strings"
)

// keyPrefix namespaces all cache keys.
const keyPrefix = "cadastre"

// CacheKey identifies a cached region.
type CacheKey struct {
	// Layer is the VWorld data layer (e.g., "LP_PA_CBND_BUBUN")
	Layer string

	// Query is the region query (e.g., a PNU prefix "11110101")
	Query string
}

// String generates a deterministic cache key string.
// Format: cadastre:<layer>:<query>
//
// Example:
//
//	cadastre:LP_PA_CBND_BUBUN:11110101
func (k CacheKey) String() string {
	parts := []string{keyPrefix}

	if layer := strings.TrimSpace(k.Layer); layer != "" {
		parts = append(parts, layer)
	}
	parts = append(parts, strings.TrimSpace(k.Query))

	return strings.Join(parts, ":")
}
