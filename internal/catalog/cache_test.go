package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbook/reservation-platform/pkg/logging"
)

type stubLoader struct {
	snap  *Snapshot
	err   error
	calls int
}

func (s *stubLoader) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	s.calls++
	return s.snap, s.err
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestSnapshotReadThrough(t *testing.T) {
	_, client := newTestRedis(t)
	loader := &stubLoader{snap: fixtureSnapshot()}
	src := NewSource(loader, client, time.Minute, logging.Default())

	ctx := context.Background()

	// First call misses the cache and loads.
	snap, err := src.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loader.calls)
	assert.Len(t, snap.Menus, 4)

	// Second call is served from redis.
	snap, err = src.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loader.calls, "second call should not hit the loader")
	assert.Len(t, snap.Menus, 4)
}

func TestSnapshotCacheExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	loader := &stubLoader{snap: fixtureSnapshot()}
	src := NewSource(loader, client, time.Minute, logging.Default())

	ctx := context.Background()
	_, err := src.Snapshot(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = src.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, loader.calls, "expired cache entry should trigger a reload")
}

func TestSnapshotWithoutRedis(t *testing.T) {
	loader := &stubLoader{snap: fixtureSnapshot()}
	src := NewSource(loader, nil, time.Minute, logging.Default())

	for i := 0; i < 3; i++ {
		_, err := src.Snapshot(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, loader.calls)
}

func TestSnapshotCorruptCacheEntryReloads(t *testing.T) {
	mr, client := newTestRedis(t)
	require.NoError(t, mr.Set(snapshotKey, "{not json"))

	loader := &stubLoader{snap: fixtureSnapshot()}
	src := NewSource(loader, client, time.Minute, logging.Default())

	_, err := src.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, loader.calls)
}

func TestRefreshPropagatesLoaderError(t *testing.T) {
	_, client := newTestRedis(t)
	loader := &stubLoader{err: errors.New("db down")}
	src := NewSource(loader, client, time.Minute, logging.Default())

	_, err := src.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog: refresh snapshot")
}
