package redisstore

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/internal/store"
	"github.com/fatflowers/payrecon/pkg/tool"
	"github.com/fatflowers/payrecon/pkg/types"
)

// setupRedis connects to APP_TEST_REDIS_ADDR (default localhost:6379, db 15)
// and skips the test when nothing answers.
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

	prefix := "payrecon_test:" + tool.GenerateUUIDV7()
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := rdb.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			_ = rdb.Del(ctx, keys...).Err()
		}
		_ = rdb.Close()
	})
	return rdb, prefix
}

func TestStore_PaymentRoundTrip(t *testing.T) {
	rdb, prefix := setupRedis(t)
	s := New(rdb, prefix)
	ctx := context.Background()

	_, err := s.GetPayment(ctx, "p1")
	require.ErrorIs(t, err, store.ErrNotFound)

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.PutPayment(ctx, &models.Payment{
		PaymentID:   "p1",
		UserID:      "u1",
		Days:        30,
		Status:      types.PaymentStatusSucceeded,
		Processed:   true,
		SucceededAt: &at,
	}))

	got, err := s.GetPayment(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, got.Processed)
	require.NotNil(t, got.SucceededAt)
	assert.True(t, at.Equal(*got.SucceededAt))
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_SubscriptionRoundTrip(t *testing.T) {
	rdb, prefix := setupRedis(t)
	s := New(rdb, prefix)
	ctx := context.Background()

	end := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.PutSubscription(ctx, &models.Subscription{UserID: "u1", EndDate: end, AppliedPaymentIDs: []string{"p1"}}))

	got, err := s.GetSubscription(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, end.Equal(got.EndDate))
	assert.True(t, got.HasApplied("p1"))
}

func TestStore_NotificationLogIsCapped(t *testing.T) {
	rdb, prefix := setupRedis(t)
	s := New(rdb, prefix)
	s.logCap = 2
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.SaveNotificationLog(ctx, &models.PaymentNotificationLog{ID: id, Status: models.PaymentNotificationLogStatusReceived}))
	}

	raw, err := rdb.LRange(ctx, s.notificationLogKey(), 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, raw, 2)
	var newest models.PaymentNotificationLog
	require.NoError(t, json.Unmarshal([]byte(raw[0]), &newest))
	assert.Equal(t, "c", newest.ID)
	assert.False(t, newest.CreatedAt.IsZero())
}

func TestStore_Keys(t *testing.T) {
	s := New(nil, "payrecon")
	assert.Equal(t, "payrecon:payment:p1", s.paymentKey("p1"))
	assert.Equal(t, "payrecon:subscription:u1", s.subscriptionKey("u1"))

	s = New(nil, "")
	assert.Equal(t, "payment:p1", s.paymentKey("p1"))
}
