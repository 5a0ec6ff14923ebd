package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotConfigured is returned when no redis client was supplied.
var ErrNotConfigured = errors.New("lock: redis client not configured")

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`

// Locker serialises work on a key across processes using SET NX.
type Locker struct {
	R            *redis.Client
	RetryBackoff time.Duration
	Prefix       string
}

// UsageKey names the lock guarding the sale log row of one order and campaign.
func UsageKey(orderID, campaignID int64) string {
	return fmt.Sprintf("usage:%d:%d", orderID, campaignID)
}

// WithLock runs fn while holding key. The lock is released when fn returns,
// and only if this caller still owns it.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return ErrNotConfigured
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}
	full := l.Prefix + key
	if l.Prefix == "" {
		full = "campaignbay:lock:" + key
	}
	token := uuid.NewString()

	for {
		ok, err := l.R.SetNX(ctx, full, token, ttl).Result()
		if err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			break
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	defer func() {
		_ = l.R.Eval(context.WithoutCancel(ctx), releaseScript, []string{full}, token).Err()
	}()
	return fn(ctx)
}

// Nop runs callbacks without any locking. It suits single instance setups.
type Nop struct{}

// WithLock calls fn directly.
func (Nop) WithLock(ctx context.Context, _ string, _ time.Duration, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	return fn(ctx)
}
