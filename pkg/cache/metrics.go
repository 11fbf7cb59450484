package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup results recorded in cadastre_cache_lookups_total.
const (
	resultHit     = "hit"
	resultMiss    = "miss"
	resultExpired = "expired"
	resultCorrupt = "corrupt"
)

var (
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadastre_cache_lookups_total",
		Help: "Region cache reads by VWorld data layer and result (hit, miss, expired, corrupt)",
	}, []string{"layer", "result"})

	cacheStoredRegions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadastre_cache_stored_regions_total",
		Help: "Regions written to the cache by VWorld data layer",
	}, []string{"layer"})

	cacheEntryBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "cadastre_cache_entry_bytes",
		Help: "Encoded size of cached regions",
		// 1 KiB .. 64 MiB; a full region of 20000 parcels is tens of MiB
		Buckets: prometheus.ExponentialBuckets(1024, 4, 9),
	})

	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadastre_cache_errors_total",
		Help: "Cache operation errors by operation (get, set, delete, lookup)",
	}, []string{"operation"})
)
