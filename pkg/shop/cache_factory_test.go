package shop_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/dcapi/pkg/shop"
)

func TestNewCacheFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		config   *shop.CacheConfig
		expected any
		wantErr  error
	}{
		{name: "nil config", config: nil, expected: &shop.MemoryCache{}},
		{name: "empty type", config: &shop.CacheConfig{}, expected: &shop.MemoryCache{}},
		{name: "memory", config: &shop.CacheConfig{Type: shop.CacheTypeMemory, Memory: &shop.MemoryCacheConfig{MaxSize: 5}}, expected: &shop.MemoryCache{}},
		{name: "none", config: &shop.CacheConfig{Type: shop.CacheTypeNone}, expected: &shop.NoOpCache{}},
		{name: "nats without config", config: &shop.CacheConfig{Type: shop.CacheTypeNATS}, wantErr: shop.ErrNATSConfigRequired},
		{name: "nats without url", config: &shop.CacheConfig{Type: shop.CacheTypeNATS, NATS: &shop.NATSKVConfig{}}, wantErr: shop.ErrNATSURLRequired},
		{name: "tiered without nats", config: &shop.CacheConfig{Type: shop.CacheTypeTiered}, wantErr: shop.ErrNATSConfigRequired},
		{name: "tiered without url", config: &shop.CacheConfig{Type: shop.CacheTypeTiered, NATS: &shop.NATSKVConfig{}}, wantErr: shop.ErrNATSURLRequired},
		{name: "zero cleanup interval", config: &shop.CacheConfig{Memory: &shop.MemoryCacheConfig{CleanupInterval: "0s"}}, wantErr: shop.ErrInvalidCleanupInterval},
		{name: "unsupported", config: &shop.CacheConfig{Type: "redis"}, wantErr: shop.ErrUnsupportedCacheType},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cache, err := shop.NewCacheFromConfig(tt.config)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.IsType(t, tt.expected, cache)
		})
	}
}

func TestDefaultCacheConfig(t *testing.T) {
	t.Parallel()

	config := shop.DefaultCacheConfig()

	assert.Equal(t, shop.CacheTypeMemory, config.Type)
	require.NotNil(t, config.Memory)
	assert.Equal(t, 1000, config.Memory.MaxSize)
	assert.Equal(t, "1m", config.Memory.CleanupInterval)
	require.NotNil(t, config.Options)
	assert.Equal(t, 5*time.Minute, config.Options.TTL)
	assert.True(t, config.Options.EnableETags)
}

func TestNoOpCache(t *testing.T) {
	t.Parallel()

	cache := shop.NewNoOpCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", &shop.CacheEntry{Data: []byte("x"), ExpiresAt: time.Now().Add(time.Hour)}))

	_, err := cache.Get(ctx, "key")
	require.ErrorIs(t, err, shop.ErrCacheDisabled)
	assert.False(t, cache.Has(ctx, "key"))
	require.NoError(t, cache.Delete(ctx, "key"))
	require.NoError(t, cache.Clear(ctx))
}

func TestMemoryCacheConfig_Interval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *shop.MemoryCacheConfig
		want    time.Duration
		wantErr bool
	}{
		{name: "nil config", config: nil},
		{name: "unset", config: &shop.MemoryCacheConfig{}},
		{name: "minute", config: &shop.MemoryCacheConfig{CleanupInterval: "1m"}, want: time.Minute},
		{name: "zero", config: &shop.MemoryCacheConfig{CleanupInterval: "0s"}, wantErr: true},
		{name: "negative", config: &shop.MemoryCacheConfig{CleanupInterval: "-1s"}, wantErr: true},
		{name: "garbage", config: &shop.MemoryCacheConfig{CleanupInterval: "often"}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			interval, err := tt.config.Interval()
			if tt.wantErr {
				require.ErrorIs(t, err, shop.ErrInvalidCleanupInterval)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, interval)
		})
	}
}

func TestParseCacheType(t *testing.T) {
	t.Parallel()

	for _, cacheType := range shop.CacheTypes() {
		parsed, err := shop.ParseCacheType(string(cacheType))
		require.NoError(t, err)
		assert.Equal(t, cacheType, parsed)
	}

	_, err := shop.ParseCacheType("redis")
	require.ErrorIs(t, err, shop.ErrUnsupportedCacheType)
}

func TestTieredCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	local := shop.NewMemoryCache(10)
	shared := shop.NewMemoryCache(10)
	tiered := shop.NewTieredCache(local, shared)

	entry := &shop.CacheEntry{Data: []byte(`{"product_id":1}`), ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, shared.Set(ctx, "GET:/webapi/rest/products/1", entry))

	assert.True(t, tiered.Has(ctx, "GET:/webapi/rest/products/1"))
	assert.False(t, local.Has(ctx, "GET:/webapi/rest/products/1"))

	found, err := tiered.Get(ctx, "GET:/webapi/rest/products/1")
	require.NoError(t, err)
	assert.Equal(t, entry.Data, found.Data)
	assert.True(t, local.Has(ctx, "GET:/webapi/rest/products/1"))

	require.NoError(t, tiered.Delete(ctx, "GET:/webapi/rest/products/1"))
	assert.False(t, local.Has(ctx, "GET:/webapi/rest/products/1"))
	assert.False(t, shared.Has(ctx, "GET:/webapi/rest/products/1"))

	require.NoError(t, tiered.Set(ctx, "GET:/webapi/rest/producers", entry))
	assert.True(t, local.Has(ctx, "GET:/webapi/rest/producers"))
	assert.True(t, shared.Has(ctx, "GET:/webapi/rest/producers"))

	require.NoError(t, tiered.Clear(ctx))
	assert.Zero(t, local.Len()+shared.Len())

	_, err = tiered.Get(ctx, "GET:/webapi/rest/producers")
	require.ErrorIs(t, err, shop.ErrCacheKeyNotFound)
}

func TestTieredCache_SkipsExpiredTier(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	local := shop.NewMemoryCache(10)
	shared := shop.NewMemoryCache(10)
	tiered := shop.NewTieredCache(local, shared)

	require.NoError(t, local.Set(ctx, "key", &shop.CacheEntry{Data: []byte("stale"), ExpiresAt: time.Now().Add(-time.Second)}))
	require.NoError(t, shared.Set(ctx, "key", &shop.CacheEntry{Data: []byte("fresh"), ExpiresAt: time.Now().Add(time.Hour)}))

	found, err := tiered.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), found.Data)

	refilled, err := local.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), refilled.Data)
}

func TestTieredCache_StartCleanupAndClose(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local := shop.NewMemoryCache(10)
	tiered := shop.NewTieredCache(local, shop.NewNoOpCache())

	require.NoError(t, local.Set(ctx, "expired", &shop.CacheEntry{ExpiresAt: time.Now().Add(-time.Second)}))

	tiered.StartCleanup(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return local.Len() == 0 }, time.Second, 10*time.Millisecond)
	require.NoError(t, tiered.Close())
}
