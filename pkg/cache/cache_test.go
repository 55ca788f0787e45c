package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakubdabek/gembiler/pkg/cache"
	"github.com/jakubdabek/gembiler/pkg/config"
)

func TestKeyChangesWithSourceOrOptLevel(t *testing.T) {
	k1 := cache.Key("DECLARE n BEGIN END", config.OptNone)
	k2 := cache.Key("DECLARE n BEGIN END", config.OptDeadStore)
	k3 := cache.Key("DECLARE m BEGIN END", config.OptNone)
	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Equal(t, k1, cache.Key("DECLARE n BEGIN END", config.OptNone))
}

func TestMemoryGetSetRoundTrip(t *testing.T) {
	m := cache.NewMemory(10)
	ctx := context.Background()

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", "LOAD 1\nHALT\n", 0))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "LOAD 1\nHALT\n", v)

	stats := m.Stats()
	assert.Equal(t, uint64(1), stats.Sets)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestMemoryEntryExpiresAfterTTL(t *testing.T) {
	m := cache.NewMemory(10)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "HALT\n", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry must be treated as a miss once its TTL elapses")
}

func TestMemoryEvictsOldestEntryOverCapacity(t *testing.T) {
	m := cache.NewMemory(2)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "1", 0))
	require.NoError(t, m.Set(ctx, "b", "2", 0))
	require.NoError(t, m.Set(ctx, "c", "3", 0))

	_, ok, _ := m.Get(ctx, "a")
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok, _ = m.Get(ctx, "c")
	assert.True(t, ok)
}

func TestNewSelectsMemoryBackendByDefault(t *testing.T) {
	cfg := config.Default()
	c, err := cache.New(cfg)
	require.NoError(t, err)
	defer c.Close()
	_, ok := c.(*cache.Memory)
	assert.True(t, ok)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.CacheBackend = "bogus"
	_, err := cache.New(cfg)
	assert.Error(t, err)
}
