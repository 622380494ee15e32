package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"appreview/internal/ports"
)

// MemoryCache is a process-local cache with per-entry expiry.
type MemoryCache struct {
	store *gocache.Cache
}

var _ ports.Cache = (*MemoryCache)(nil)

// NewMemoryCache uses defaultTTL when Set is called with ttl <= 0.
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	return &MemoryCache{store: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return "", false, err
	}

	value, found := c.store.Get(trimmedKey)
	if !found {
		return "", false, nil
	}
	text, ok := value.(string)
	return text, ok, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return err
	}

	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.store.Set(trimmedKey, value, ttl)
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return err
	}
	c.store.Delete(trimmedKey)
	return nil
}
