package project

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Defaults for RedisStore.
const (
	DefaultStateKey = "cadastre:project:state"
	DefaultQuota    = 5 << 20 // 5 MiB
)

// RedisStore keeps the project state under a single Redis key.
type RedisStore struct {
	redis  *redis.Client
	key    string
	quota  int
	logger zerolog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed store. An empty key uses
// DefaultStateKey and a non-positive quota uses DefaultQuota.
func NewRedisStore(redisClient *redis.Client, key string, quota int) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if key == "" {
		key = DefaultStateKey
	}
	if quota <= 0 {
		quota = DefaultQuota
	}
	return &RedisStore{
		redis:  redisClient,
		key:    key,
		quota:  quota,
		logger: log.With().Str("component", "project-store").Str("store", "redis").Logger(),
	}
}

// Save implements Store. States whose encoding exceeds the quota are rejected
// with ErrQuotaExceeded and the previously saved state is kept.
func (r *RedisStore) Save(ctx context.Context, s *State) (err error) {
	defer func() { observe("redis", "save", err) }()

	s.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal project state: %w", err)
	}

	if len(data) > r.quota {
		r.logger.Warn().
			Str("project", s.Name).
			Int("size", len(data)).
			Int("quota", r.quota).
			Msg("Project exceeds storage quota, export it to a file instead")
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrQuotaExceeded, len(data), r.quota)
	}

	if err := r.redis.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	stateSizeBytes.WithLabelValues("redis").Set(float64(len(data)))
	r.logger.Info().
		Str("project", s.Name).
		Int("lands", len(s.Lands)).
		Int("size", len(data)).
		Msg("Project saved")

	return nil
}

// Load implements Store.
func (r *RedisStore) Load(ctx context.Context) (s *State, err error) {
	defer func() { observe("redis", "load", err) }()

	data, err := r.redis.Get(ctx, r.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	return decodeState(data)
}

// Delete removes the saved state.
func (r *RedisStore) Delete(ctx context.Context) error {
	if err := r.redis.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func decodeState(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
