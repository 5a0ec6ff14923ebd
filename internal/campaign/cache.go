package campaign

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/coocood/freecache"
	"github.com/redis/go-redis/v9"
)

// DefaultListCacheKey is the key under which the campaign list is cached.
const DefaultListCacheKey = "campaignbay:campaigns:active"

// ListCache stores the resolved campaign list across requests.
type ListCache interface {
	Get(ctx context.Context) ([]*Campaign, bool, error)
	Set(ctx context.Context, campaigns []*Campaign) error
	Clear(ctx context.Context) error
}

// RedisListCache keeps the list in Redis so every API replica shares it.
type RedisListCache struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

func (c RedisListCache) key() string {
	if c.Key != "" {
		return c.Key
	}
	return DefaultListCacheKey
}

// Get implements ListCache.
func (c RedisListCache) Get(ctx context.Context) ([]*Campaign, bool, error) {
	if c.Client == nil {
		return nil, false, nil
	}
	data, err := c.Client.Get(ctx, c.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return decodeList(data)
}

// Set implements ListCache.
func (c RedisListCache) Set(ctx context.Context, campaigns []*Campaign) error {
	if c.Client == nil || c.TTL <= 0 {
		return nil
	}
	data, err := json.Marshal(campaigns)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, c.key(), data, c.TTL).Err()
}

// Clear implements ListCache.
func (c RedisListCache) Clear(ctx context.Context) error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Del(ctx, c.key()).Err()
}

// MemoryListCache keeps the list in process memory. Suitable for single
// replica deployments.
type MemoryListCache struct {
	cache *freecache.Cache
	key   []byte
	ttl   time.Duration
}

// NewMemoryListCache allocates a freecache arena of size bytes.
func NewMemoryListCache(size int, ttl time.Duration) *MemoryListCache {
	return &MemoryListCache{cache: freecache.NewCache(size), key: []byte(DefaultListCacheKey), ttl: ttl}
}

// Get implements ListCache.
func (c *MemoryListCache) Get(_ context.Context) ([]*Campaign, bool, error) {
	data, err := c.cache.Get(c.key)
	if err != nil {
		if errors.Is(err, freecache.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return decodeList(data)
}

// Set implements ListCache.
func (c *MemoryListCache) Set(_ context.Context, campaigns []*Campaign) error {
	seconds := int(c.ttl / time.Second)
	if seconds <= 0 {
		return nil
	}
	data, err := json.Marshal(campaigns)
	if err != nil {
		return err
	}
	return c.cache.Set(c.key, data, seconds)
}

// Clear implements ListCache.
func (c *MemoryListCache) Clear(_ context.Context) error {
	c.cache.Del(c.key)
	return nil
}

func decodeList(data []byte) ([]*Campaign, bool, error) {
	var out []*Campaign
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false, err
	}
	return out, true, nil
}
