package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache wraps Redis helpers for JSON payloads.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" || c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// CachedLookup serves product and category reads from Redis before falling
// through to the wrapped Lookup. Cache errors are logged and bypassed.
type CachedLookup struct {
	Next   Lookup
	Cache  *Cache
	Logger zerolog.Logger
}

// GetProductByID implements Lookup.
func (l CachedLookup) GetProductByID(ctx context.Context, id int64) (Product, error) {
	key := "catalog:product:" + strconv.FormatInt(id, 10)
	var p Product
	if ok, err := l.Cache.GetJSON(ctx, key, &p); err != nil {
		l.Logger.Warn().Err(err).Int64("product_id", id).Msg("catalog cache read failed")
	} else if ok {
		return p, nil
	}
	p, err := l.Next.GetProductByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if err := l.Cache.SetJSON(ctx, key, p); err != nil {
		l.Logger.Warn().Err(err).Int64("product_id", id).Msg("catalog cache write failed")
	}
	return p, nil
}

// QueryProductIDsByCategory implements Lookup.
func (l CachedLookup) QueryProductIDsByCategory(ctx context.Context, categoryIDs []int64) ([]int64, error) {
	key := "catalog:category:" + joinIDs(categoryIDs)
	var ids []int64
	if ok, err := l.Cache.GetJSON(ctx, key, &ids); err != nil {
		l.Logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	} else if ok {
		return ids, nil
	}
	ids, err := l.Next.QueryProductIDsByCategory(ctx, categoryIDs)
	if err != nil {
		return nil, err
	}
	if err := l.Cache.SetJSON(ctx, key, ids); err != nil {
		l.Logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return ids, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
