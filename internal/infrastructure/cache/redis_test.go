package cache

import (
	"context"
	"testing"
	"time"

	"servicehub/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedProvider struct {
	ID           string `json:"id"`
	BusinessName string `json:"business_name"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewWithClient(client, time.Minute, zerolog.Nop())
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestCacheSetGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, ProviderKey("p1"), &cachedProvider{ID: "p1", BusinessName: "Ada's Cleaning"})

	var out cachedProvider
	require.NoError(t, c.Get(ctx, ProviderKey("p1"), &out))
	assert.Equal(t, "Ada's Cleaning", out.BusinessName)
}

func TestCacheMiss(t *testing.T) {
	c, _ := newTestCache(t)

	var out cachedProvider
	err := c.Get(context.Background(), ProviderKey("absent"), &out)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCacheTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, ServiceKey("s1"), &cachedProvider{ID: "s1"})
	mr.FastForward(2 * time.Minute)

	var out cachedProvider
	assert.ErrorIs(t, c.Get(ctx, ServiceKey("s1"), &out), ErrMiss)
}

func TestCacheInvalidatePattern(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, ProviderListKey("lagos", 0, 10), []cachedProvider{{ID: "p1"}})
	c.Set(ctx, ProviderListKey("abuja", 0, 10), []cachedProvider{{ID: "p2"}})
	c.Set(ctx, ProviderKey("p1"), &cachedProvider{ID: "p1"})

	c.Invalidate(ctx, "providers:list:*")

	var out []cachedProvider
	assert.ErrorIs(t, c.Get(ctx, ProviderListKey("lagos", 0, 10), &out), ErrMiss)
	assert.ErrorIs(t, c.Get(ctx, ProviderListKey("abuja", 0, 10), &out), ErrMiss)

	var single cachedProvider
	assert.NoError(t, c.Get(ctx, ProviderKey("p1"), &single))
}

func TestDisabledCacheIsNilSafe(t *testing.T) {
	c := New(config.RedisConfig{Enabled: false}, zerolog.Nop())
	ctx := context.Background()

	c.Set(ctx, "k", "v")
	c.Invalidate(ctx, "*")

	var out string
	assert.ErrorIs(t, c.Get(ctx, "k", &out), ErrMiss)
	assert.NoError(t, c.Close())
}

func TestKeyBuilders(t *testing.T) {
	assert.Equal(t, "providers:id:p1", ProviderKey("p1"))
	assert.Equal(t, "providers:list:lagos:0:10", ProviderListKey("lagos", 0, 10))
	assert.Equal(t, "services:id:s1", ServiceKey("s1"))
	assert.Equal(t, "services:list:cleaning:20:10", ServiceListKey("cleaning", 20, 10))
}
