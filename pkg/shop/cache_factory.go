package shop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fivetwenty-io/dcapi/internal/constants"
)

// CacheType selects a cache backend.
type CacheType string

const (
	// CacheTypeMemory keeps responses in process.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeNATS shares responses through a JetStream KV bucket.
	CacheTypeNATS CacheType = "nats"

	// CacheTypeTiered reads through a memory tier in front of the KV bucket.
	CacheTypeTiered CacheType = "tiered"

	// CacheTypeNone disables caching.
	CacheTypeNone CacheType = "none"
)

// Static errors for err113 compliance.
var (
	ErrNATSConfigRequired     = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType   = errors.New("unsupported cache type")
	ErrCacheDisabled          = errors.New("cache disabled")
	ErrInvalidCleanupInterval = errors.New("cache cleanup interval must be a positive duration")
)

// CacheTypes lists the accepted CacheConfig.Type values.
func CacheTypes() []CacheType {
	return []CacheType{CacheTypeMemory, CacheTypeNATS, CacheTypeTiered, CacheTypeNone}
}

// ParseCacheType validates a cache type name.
func ParseCacheType(name string) (CacheType, error) {
	for _, cacheType := range CacheTypes() {
		if string(cacheType) == name {
			return cacheType, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedCacheType, name)
}

// CacheConfig configures the response cache of a client.
type CacheConfig struct {
	Type CacheType `json:"type" mapstructure:"type" yaml:"type"`

	// Memory configures the in-process cache, alone or as the first tier.
	Memory *MemoryCacheConfig `json:"memory,omitempty" mapstructure:"memory" yaml:"memory,omitempty"`

	// NATS configures the shared KV bucket, alone or as the second tier.
	NATS *NATSKVConfig `json:"nats,omitempty" mapstructure:"nats" yaml:"nats,omitempty"`

	// Options apply whatever the backend. Nil means DefaultCacheOptions().
	Options *CacheOptions `json:"options,omitempty" mapstructure:"options" yaml:"options,omitempty"`
}

// MemoryCacheConfig configures the in-process cache.
type MemoryCacheConfig struct {
	MaxSize int `json:"max_size" mapstructure:"max_size" yaml:"max_size"`

	// CleanupInterval is a duration string such as "1m". Empty disables
	// periodic purging; expired entries are then dropped on read.
	CleanupInterval string `json:"cleanup_interval,omitempty" mapstructure:"cleanup_interval" yaml:"cleanup_interval,omitempty"`
}

// Interval parses CleanupInterval. It returns 0 when no interval is set and
// ErrInvalidCleanupInterval for anything that is not a positive duration.
func (c *MemoryCacheConfig) Interval() (time.Duration, error) {
	if c == nil || c.CleanupInterval == "" {
		return 0, nil
	}

	interval, err := time.ParseDuration(c.CleanupInterval)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidCleanupInterval, err)
	}

	if interval <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCleanupInterval, c.CleanupInterval)
	}

	return interval, nil
}

// DefaultCacheConfig returns a memory cache purged every minute.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type: CacheTypeMemory,
		Memory: &MemoryCacheConfig{
			MaxSize:         constants.DefaultCacheSize,
			CleanupInterval: constants.DefaultCacheCleanupInterval,
		},
		Options: DefaultCacheOptions(),
	}
}

// NewCacheFromConfig creates the backend config describes. A nil config
// yields DefaultCacheConfig's backend.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeMemory, "":
		local, err := newMemoryTier(config.Memory)
		if err != nil {
			return nil, err
		}

		return local, nil

	case CacheTypeNATS:
		shared, err := NewNATSKVCache(config.NATS)
		if err != nil {
			return nil, err
		}

		return shared, nil

	case CacheTypeTiered:
		local, err := newMemoryTier(config.Memory)
		if err != nil {
			return nil, err
		}

		shared, err := NewNATSKVCache(config.NATS)
		if err != nil {
			return nil, fmt.Errorf("creating shared tier: %w", err)
		}

		return NewTieredCache(local, shared), nil

	case CacheTypeNone:
		return NewNoOpCache(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}

func newMemoryTier(config *MemoryCacheConfig) (*MemoryCache, error) {
	_, err := config.Interval()
	if err != nil {
		return nil, err
	}

	if config == nil {
		return NewMemoryCache(constants.DefaultCacheSize), nil
	}

	return NewMemoryCache(config.MaxSize), nil
}

// NoOpCache caches nothing.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always fails with ErrCacheDisabled.
func (c *NoOpCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

func (c *NoOpCache) Set(ctx context.Context, key string, entry *CacheEntry) error { return nil }
func (c *NoOpCache) Delete(ctx context.Context, key string) error                 { return nil }
func (c *NoOpCache) Clear(ctx context.Context) error                              { return nil }
func (c *NoOpCache) Has(ctx context.Context, key string) bool                     { return false }

// TieredCache reads from the first tier holding a live entry and copies that
// entry into the tiers above it. Writes and invalidations go to every tier,
// so a PUT through one process evicts the shared tier for all of them.
type TieredCache struct {
	tiers []Cache
}

// NewTieredCache orders tiers fastest first.
func NewTieredCache(tiers ...Cache) *TieredCache {
	return &TieredCache{tiers: tiers}
}

// Get implements Cache.
func (c *TieredCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	for i, tier := range c.tiers {
		entry, err := tier.Get(ctx, key)
		if err != nil {
			continue
		}

		for _, upper := range c.tiers[:i] {
			_ = upper.Set(ctx, key, entry)
		}

		return entry, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrCacheKeyNotFound, key)
}

// Set implements Cache.
func (c *TieredCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return c.each(func(tier Cache) error { return tier.Set(ctx, key, entry) })
}

// Delete implements Cache.
func (c *TieredCache) Delete(ctx context.Context, key string) error {
	return c.each(func(tier Cache) error { return tier.Delete(ctx, key) })
}

// Clear implements Cache.
func (c *TieredCache) Clear(ctx context.Context) error {
	return c.each(func(tier Cache) error { return tier.Clear(ctx) })
}

// Has implements Cache.
func (c *TieredCache) Has(ctx context.Context, key string) bool {
	for _, tier := range c.tiers {
		if tier.Has(ctx, key) {
			return true
		}
	}

	return false
}

// StartCleanup starts periodic purging on every tier that supports it.
func (c *TieredCache) StartCleanup(ctx context.Context, interval time.Duration) {
	for _, tier := range c.tiers {
		if memory, ok := tier.(*MemoryCache); ok {
			memory.StartCleanup(ctx, interval)
		}
	}
}

// Close closes every tier holding resources.
func (c *TieredCache) Close() error {
	return c.each(func(tier Cache) error {
		if closer, ok := tier.(io.Closer); ok {
			return closer.Close()
		}

		return nil
	})
}

func (c *TieredCache) each(fn func(Cache) error) error {
	var errs []error

	for _, tier := range c.tiers {
		err := fn(tier)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
