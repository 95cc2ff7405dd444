package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinicbook/reservation-platform/pkg/logging"
)

const snapshotKey = "clinicbook:catalog:snapshot"

// Loader produces a fresh configuration snapshot from the backing store.
type Loader interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
}

// Source hands out snapshots for evaluations, serving a cached copy from redis
// when one is fresh enough and falling back to the repository otherwise.
type Source struct {
	loader Loader
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewSource creates a read-through snapshot source. redisClient may be nil,
// in which case every Snapshot call hits the loader.
func NewSource(loader Loader, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *Source {
	if loader == nil {
		panic("catalog: loader required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Source{loader: loader, redis: redisClient, ttl: ttl, logger: logger}
}

// Snapshot returns the cached snapshot if present, otherwise loads and caches
// a fresh one. Cache failures degrade to a direct load; they never fail the call.
func (s *Source) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s.redis != nil {
		data, err := s.redis.Get(ctx, snapshotKey).Bytes()
		switch {
		case err == nil:
			var snap Snapshot
			if jsonErr := json.Unmarshal(data, &snap); jsonErr == nil {
				return &snap, nil
			}
			s.logger.Warn("catalog cache entry corrupt, reloading", "key", snapshotKey)
		case err != redis.Nil:
			s.logger.Warn("catalog cache read failed", "error", err)
		}
	}
	return s.Refresh(ctx)
}

// Refresh loads a fresh snapshot and replaces the cached copy. Used by the
// sync worker and by cache misses.
func (s *Source) Refresh(ctx context.Context) (*Snapshot, error) {
	snap, err := s.loader.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: refresh snapshot: %w", err)
	}
	if s.redis != nil {
		data, err := json.Marshal(snap)
		if err == nil {
			if err := s.redis.Set(ctx, snapshotKey, data, s.ttl).Err(); err != nil {
				s.logger.Warn("catalog cache write failed", "error", err)
			}
		}
	}
	return snap, nil
}
