package guard

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/payrecon/pkg/tool"
)

func setupRedis(t *testing.T) (*redis.Client, string) {
	t.Helper()
	addr := os.Getenv("APP_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15, DialTimeout: 200 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, "payrecon_test:" + tool.GenerateUUIDV7()
}

func TestRedis_SerializesSameKey(t *testing.T) {
	rdb, prefix := setupRedis(t)
	l := NewRedis(rdb, prefix, 5*time.Second, 5*time.Second, 5*time.Millisecond)
	var inside, violations int32

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(context.Background(), PaymentKey("p1"), func(context.Context) error {
				if atomic.AddInt32(&inside, 1) > 1 {
					atomic.AddInt32(&violations, 1)
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Zero(t, violations)
	exists, err := rdb.Exists(context.Background(), l.lockKey(PaymentKey("p1"))).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestRedis_Timeout(t *testing.T) {
	rdb, prefix := setupRedis(t)
	l := NewRedis(rdb, prefix, 5*time.Second, 30*time.Millisecond, 5*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, rdb.Set(ctx, l.lockKey(UserKey("u1")), "someone-else", time.Second).Err())
	t.Cleanup(func() { rdb.Del(ctx, l.lockKey(UserKey("u1"))) })

	err := l.WithLock(ctx, UserKey("u1"), func(context.Context) error { return nil })
	require.ErrorIs(t, err, ErrLockTimeout)
}

func TestRedis_ReleaseKeepsForeignLock(t *testing.T) {
	rdb, prefix := setupRedis(t)
	l := NewRedis(rdb, prefix, 5*time.Second, time.Second, 5*time.Millisecond)
	ctx := context.Background()
	key := l.lockKey(PaymentKey("p1"))

	err := l.WithLock(ctx, PaymentKey("p1"), func(context.Context) error {
		// simulate lease expiry followed by another holder
		return rdb.Set(ctx, key, "other-token", time.Second).Err()
	})
	require.NoError(t, err)

	val, err := rdb.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "other-token", val)
	rdb.Del(ctx, key)
}
