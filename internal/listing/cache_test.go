package listing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCacheBuildKeyEmbedsVersion(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "tasks", "page", "page=1")
	require.NoError(t, err)
	assert.Equal(t, "listing:tasks:page:page=1:1", key)

	require.NoError(t, cache.Bump(ctx, "tasks"))
	key, err = cache.BuildKey(ctx, "tasks", "page", "page=1")
	require.NoError(t, err)
	assert.Equal(t, "listing:tasks:page:page=1:2", key)

	other, err := cache.BuildKey(ctx, "products", "page", "page=1")
	require.NoError(t, err)
	assert.Equal(t, "listing:products:page:page=1:1", other)
}

func TestCacheFetchJSONStoresAndHits(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return Page[string]{Data: []string{"a"}, PageCount: 1, RowCount: 1}, nil
	}

	var first Page[string]
	hit, err := cache.FetchJSON(ctx, "k", &first, loader)
	require.NoError(t, err)
	assert.False(t, hit)

	var second Page[string]
	hit, err = cache.FetchJSON(ctx, "k", &second, loader)
	require.NoError(t, err)
	assert.True(t, hit)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("k"))
	assert.Equal(t, time.Minute, mr.TTL("k"))
}

func TestCacheFetchJSONPropagatesLoaderError(t *testing.T) {
	cache, mr := newTestCache(t)
	boom := errors.New("boom")

	var dest Page[string]
	_, err := cache.FetchJSON(context.Background(), "k", &dest, func(context.Context) (any, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestNilCachePassesThrough(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "tasks", "page")
	require.NoError(t, err)
	assert.Equal(t, "listing:tasks:page", key)
	assert.NoError(t, cache.Bump(ctx, "tasks"))

	var dest []int
	hit, err := cache.FetchJSON(ctx, key, &dest, func(context.Context) (any, error) { return []int{1, 2}, nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []int{1, 2}, dest)
}
