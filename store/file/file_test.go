package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	design := `{"graph_design":{"nodes":[],"edges":[]}}`
	require.NoError(t, cache.Put(ctx, "demand-key", design))

	v, ok, err := cache.Get(ctx, "demand-key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, design, v)

	require.NoError(t, cache.Put(ctx, "demand-key", "v2"))
	v, _, _ = cache.Get(ctx, "demand-key")
	assert.Equal(t, "v2", v)

	require.NoError(t, cache.Delete(ctx, "demand-key"))
	_, ok, err = cache.Get(ctx, "demand-key")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Delete(ctx, "demand-key"))
}

func TestFileCacheArbitraryKeys(t *testing.T) {
	ctx := context.Background()
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	// Keys with path separators and spaces must not escape the cache dir.
	key := "../weird key/with/slashes"
	require.NoError(t, cache.Put(ctx, key, "value"))

	v, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", v)
}
