package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/cadastre-client/pkg/feature"
	"github.com/Sternrassler/cadastre-client/pkg/pagination"
)

// DefaultTTL is how long a collected region stays cached.
const DefaultTTL = 24 * time.Hour

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Manager handles region caching with Redis backend.
type Manager struct {
	redis  *redis.Client
	layer  string
	ttl    time.Duration
	logger zerolog.Logger
}

var _ pagination.Preloaded = (*Manager)(nil)

// NewManager creates a new cache manager for layer. A non-positive ttl uses
// DefaultTTL.
func NewManager(redisClient *redis.Client, layer string, ttl time.Duration) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		redis:  redisClient,
		layer:  layer,
		ttl:    ttl,
		logger: log.With().Str("component", "cache").Str("layer", layer).Logger(),
	}
}

// Key returns the cache key of query in the manager's layer.
func (m *Manager) Key(query string) CacheKey {
	return CacheKey{Layer: m.layer, Query: query}
}

// Get retrieves a cache entry by key.
// Returns ErrCacheMiss if the key doesn't exist or entry is expired.
func (m *Manager) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	cacheKey := key.String()

	data, err := m.redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			cacheLookups.WithLabelValues(m.layer, resultMiss).Inc()
			return nil, ErrCacheMiss
		}
		cacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		cacheLookups.WithLabelValues(m.layer, resultCorrupt).Inc()
		cacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired() {
		_ = m.Delete(ctx, key)
		cacheLookups.WithLabelValues(m.layer, resultExpired).Inc()
		return nil, ErrCacheMiss
	}

	cacheLookups.WithLabelValues(m.layer, resultHit).Inc()

	return &entry, nil
}

// Set stores a cache entry with TTL based on the entry's Expires field.
// Expired entries are silently dropped.
func (m *Manager) Set(ctx context.Context, key CacheKey, entry *CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	cacheEntryBytes.Observe(float64(len(data)))

	return nil
}

// Delete removes a cache entry.
func (m *Manager) Delete(ctx context.Context, key CacheKey) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		cacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// UpdateTTL moves the expiration of an existing cache entry.
func (m *Manager) UpdateTTL(ctx context.Context, key CacheKey, newExpires time.Time) error {
	entry, err := m.Get(ctx, key)
	if err != nil {
		return err
	}

	entry.Expires = newExpires

	return m.Set(ctx, key, entry)
}

// Store caches a collected region under query. Empty collections are not
// cached.
func (m *Manager) Store(ctx context.Context, query string, collection *feature.Collection) error {
	if collection.Len() == 0 {
		return nil
	}

	entry, err := NewEntry(query, collection, m.ttl)
	if err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return err
	}

	if err := m.Set(ctx, m.Key(query), entry); err != nil {
		return err
	}
	cacheStoredRegions.WithLabelValues(m.layer).Inc()

	m.logger.Debug().
		Str("query", query).
		Int("features", entry.FeatureCount).
		Dur("ttl", m.ttl).
		Msg("Region cached")

	return nil
}

// Lookup implements pagination.Preloaded. Cache failures are logged and
// reported as a miss so collection falls back to the network.
func (m *Manager) Lookup(ctx context.Context, query string) (*feature.Collection, bool) {
	entry, err := m.Get(ctx, m.Key(query))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			cacheErrors.WithLabelValues("lookup").Inc()
			m.logger.Warn().Err(err).Str("query", query).Msg("Cache lookup failed")
		}
		return nil, false
	}

	collection, err := entry.Collection()
	if err != nil {
		cacheErrors.WithLabelValues("lookup").Inc()
		m.logger.Warn().Err(err).Str("query", query).Msg("Cached region is corrupt")
		return nil, false
	}
	if collection.Len() == 0 {
		return nil, false
	}

	m.logger.Debug().
		Str("query", query).
		Int("features", collection.Len()).
		Msg("Region served from cache")

	return collection, true
}
