package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"
)

type countingLookup struct {
	products   map[int64]Product
	categories map[int64][]int64
	err        error
	calls      int
}

func (c *countingLookup) GetProductByID(_ context.Context, id int64) (Product, error) {
	c.calls++
	if c.err != nil {
		return Product{}, c.err
	}
	p, ok := c.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (c *countingLookup) QueryProductIDsByCategory(_ context.Context, ids []int64) ([]int64, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	var out []int64
	for _, id := range ids {
		out = append(out, c.categories[id]...)
	}
	return out, nil
}

func TestCachedLookupServesSecondReadFromRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	next := &countingLookup{products: map[int64]Product{
		5: {ID: 5, Name: "Mug", Kind: KindSimple, Price: decimal.NewFromInt(12), RegularPrice: decimal.NewFromInt(12)},
	}}
	lookup := CachedLookup{Next: next, Cache: NewCache(rdb, time.Minute), Logger: zerolog.Nop()}

	first, err := lookup.GetProductByID(context.Background(), 5)
	require.NoError(t, err)
	second, err := lookup.GetProductByID(context.Background(), 5)
	require.NoError(t, err)

	require.Equal(t, 1, next.calls)
	require.True(t, first.Price.Equal(second.Price))
	require.Equal(t, "Mug", second.Name)
}

func TestCachedLookupCategoryIDs(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	next := &countingLookup{categories: map[int64][]int64{9: {1, 2, 3}}}
	lookup := CachedLookup{Next: next, Cache: NewCache(rdb, time.Minute), Logger: zerolog.Nop()}

	for i := 0; i < 3; i++ {
		ids, err := lookup.QueryProductIDsByCategory(context.Background(), []int64{9})
		require.NoError(t, err)
		require.Equal(t, []int64{1, 2, 3}, ids)
	}
	require.Equal(t, 1, next.calls)
	require.True(t, mr.Exists("catalog:category:9"))
}

func TestGuardedLookupOpensAfterFailures(t *testing.T) {
	next := &countingLookup{err: errors.New("connection refused")}
	guarded := NewGuardedLookup(next, BreakerConfig{MinRequests: 2, FailureRatio: 0.5, OpenFor: time.Minute}, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := guarded.GetProductByID(context.Background(), 1)
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, guarded.State())

	_, err := guarded.QueryProductIDsByCategory(context.Background(), []int64{1})
	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, 2, next.calls)
}

func TestGuardedLookupIgnoresNotFound(t *testing.T) {
	next := &countingLookup{products: map[int64]Product{}}
	guarded := NewGuardedLookup(next, BreakerConfig{MinRequests: 1, FailureRatio: 0.1}, zerolog.Nop())

	for i := 0; i < 5; i++ {
		_, err := guarded.GetProductByID(context.Background(), 42)
		require.ErrorIs(t, err, ErrProductNotFound)
	}
	require.Equal(t, gobreaker.StateClosed, guarded.State())
}
