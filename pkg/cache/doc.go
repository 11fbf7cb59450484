// Package cache stores collected cadastral regions in Redis.
//
// A region is cached as the GeoJSON FeatureCollection of all its parcels,
// keyed by data layer and query. The cache manager doubles as a preloaded
// source for the region collector, so a cached region is served without any
// network request.
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager for the cadastral layer, keeping regions a day
//	manager := cache.NewManager(redisClient, "LP_PA_CBND_BUBUN", 24*time.Hour)
//
//	// Serve cached regions before hitting VWorld
//	cfg := pagination.DefaultConfig()
//	cfg.Preloaded = manager
//	collector := pagination.NewCollector(vworld, cfg)
//
//	// Store freshly collected regions
//	outcome := collector.Collect(ctx, "11110101")
//	if outcome.Status == pagination.StatusCollected && !outcome.Preloaded {
//		if err := manager.Store(ctx, "11110101", outcome.Collection); err != nil {
//			return err
//		}
//	}
//
// Only non-empty regions are cached. Empty and failed outcomes are never
// stored, so a later request retries the network.
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - cadastre_cache_lookups_total{layer, result} - Reads by hit, miss, expired, corrupt
//   - cadastre_cache_stored_regions_total{layer} - Regions written
//   - cadastre_cache_entry_bytes - Encoded size of cached regions
//   - cadastre_cache_errors_total{operation} - Cache operation errors
package cache
