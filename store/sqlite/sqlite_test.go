package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *SqliteCache {
	t.Helper()
	cache, err := NewSqliteCache(SqliteOptions{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestSqliteCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, "k", `{"nodes":[]}`))
	v, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"nodes":[]}`, v)

	// Upsert replaces the value.
	require.NoError(t, cache.Put(ctx, "k", "v2"))
	v, _, _ = cache.Get(ctx, "k")
	assert.Equal(t, "v2", v)

	require.NoError(t, cache.Delete(ctx, "k"))
	_, ok, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSqliteCacheCustomTable(t *testing.T) {
	ctx := context.Background()
	cache, err := NewSqliteCache(SqliteOptions{Path: ":memory:", TableName: "plans"})
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.Put(ctx, "k", "v"))
	v, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}
