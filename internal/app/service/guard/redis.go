package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fatflowers/payrecon/pkg/tool"
)

// releaseScript deletes the lock only if it still carries our token, so a
// holder whose lease expired never frees a lock someone else now owns.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const releaseTimeout = 3 * time.Second

// Redis is a lease-based distributed lock shared by all replicas. The lease
// (ttl) must outlive the longest critical section; store.timeout bounds each
// call made inside it.
type Redis struct {
	rdb           *redis.Client
	prefix        string
	ttl           time.Duration
	timeout       time.Duration
	retryInterval time.Duration
}

func NewRedis(rdb *redis.Client, prefix string, ttl, timeout, retryInterval time.Duration) *Redis {
	if retryInterval <= 0 {
		retryInterval = 50 * time.Millisecond
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl, timeout: timeout, retryInterval: retryInterval}
}

func (r *Redis) lockKey(key string) string {
	return tool.JoinKey(r.prefix, "lock", key)
}

func (r *Redis) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	waitCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	lockKey := r.lockKey(key)
	token := tool.GenerateUUIDV7()
	if err := r.acquire(waitCtx, lockKey, token); err != nil {
		return err
	}
	defer r.release(ctx, lockKey, token)

	return fn(ctx)
}

func (r *Redis) acquire(ctx context.Context, lockKey, token string) error {
	ticker := time.NewTicker(r.retryInterval)
	defer ticker.Stop()
	for {
		ok, err := r.rdb.SetNX(ctx, lockKey, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %s: %w", ErrLockTimeout, lockKey, ctx.Err())
			}
			return fmt.Errorf("failed to acquire lock %s: %w", lockKey, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %w", ErrLockTimeout, lockKey, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (r *Redis) release(ctx context.Context, lockKey, token string) {
	// release even when the caller's ctx is already canceled; the lease would
	// otherwise block the key until ttl
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	_ = releaseScript.Run(ctx, r.rdb, []string{lockKey}, token).Err()
}
