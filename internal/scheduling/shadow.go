package scheduling

import (
	"context"
	"sync"
	"time"
)

// shadowStore caches raw units keyed by date so the read path can answer
// without an upstream round trip between syncs.
type shadowStore struct {
	mu       sync.RWMutex
	units    []RawTimeUnit
	from     time.Time
	to       time.Time
	syncedAt time.Time
}

func (s *shadowStore) replace(from, to time.Time, units []RawTimeUnit, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = append([]RawTimeUnit(nil), units...)
	s.from = from
	s.to = to
	s.syncedAt = at
}

// covered reports whether the cached window contains [from, to).
func (s *shadowStore) covered(from, to time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.syncedAt.IsZero() {
		return false
	}
	return !from.Before(s.from) && !to.After(s.to)
}

func (s *shadowStore) slice(from, to time.Time) []RawTimeUnit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []RawTimeUnit
	for _, u := range s.units {
		if !u.DateTime.Before(from) && u.DateTime.Before(to) {
			out = append(out, u)
		}
	}
	return out
}

// CachedProvider serves raw units from a periodically synced shadow cache,
// falling back to the upstream provider for windows the cache does not cover.
type CachedProvider struct {
	upstream Provider
	store    *shadowStore
	now      func() time.Time
}

// NewCachedProvider wraps an upstream provider with a shadow cache. Call
// SyncWindow (directly or via a Syncer) to populate it.
func NewCachedProvider(upstream Provider) *CachedProvider {
	return &CachedProvider{upstream: upstream, store: &shadowStore{}, now: time.Now}
}

// FetchRawTimeUnits answers from the shadow cache when the window is covered,
// otherwise passes through to the upstream provider.
func (p *CachedProvider) FetchRawTimeUnits(ctx context.Context, from, to time.Time) ([]RawTimeUnit, error) {
	if p.store.covered(from, to) {
		return p.store.slice(from, to), nil
	}
	return p.upstream.FetchRawTimeUnits(ctx, from, to)
}

// SyncWindow refreshes the shadow cache for [from, to) from upstream.
func (p *CachedProvider) SyncWindow(ctx context.Context, from, to time.Time) error {
	units, err := p.upstream.FetchRawTimeUnits(ctx, from, to)
	if err != nil {
		return err
	}
	p.store.replace(from, to, units, p.now().UTC())
	return nil
}
