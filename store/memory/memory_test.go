package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, "k1", `{"nodes":[]}`))
	v, ok, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"nodes":[]}`, v)

	require.NoError(t, cache.Put(ctx, "k1", "updated"))
	v, _, _ = cache.Get(ctx, "k1")
	assert.Equal(t, "updated", v)
	assert.Equal(t, 1, cache.Len())

	require.NoError(t, cache.Delete(ctx, "k1"))
	_, ok, err = cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is not an error.
	require.NoError(t, cache.Delete(ctx, "k1"))
}

func TestMemoryCacheConcurrent(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				_ = cache.Put(ctx, "shared", "v")
				_, _, _ = cache.Get(ctx, "shared")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	v, ok, err := cache.Get(ctx, "shared")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}
