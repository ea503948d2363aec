package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/internal/store"
	"github.com/fatflowers/payrecon/pkg/tool"
)

// DefaultLogCap bounds the notification log list; older entries are trimmed.
const DefaultLogCap = 10000

// Store keeps each record as one JSON value, so every Put is a single SET.
type Store struct {
	rdb    *redis.Client
	prefix string
	logCap int64
	now    func() time.Time
}

func New(rdb *redis.Client, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix, logCap: DefaultLogCap, now: time.Now}
}

var _ store.Store = (*Store)(nil)

func (s *Store) paymentKey(id string) string {
	return tool.JoinKey(s.prefix, "payment", id)
}

func (s *Store) subscriptionKey(userID string) string {
	return tool.JoinKey(s.prefix, "subscription", userID)
}

func (s *Store) notificationLogKey() string {
	return tool.JoinKey(s.prefix, "notification_log")
}

func (s *Store) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	var p models.Payment
	if err := s.getJSON(ctx, s.paymentKey(paymentID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) PutPayment(ctx context.Context, p *models.Payment) error {
	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if err := s.setJSON(ctx, s.paymentKey(p.PaymentID), p); err != nil {
		return fmt.Errorf("failed to put payment: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.getJSON(ctx, s.subscriptionKey(userID), &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Store) PutSubscription(ctx context.Context, sub *models.Subscription) error {
	now := s.now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	if err := s.setJSON(ctx, s.subscriptionKey(sub.UserID), sub); err != nil {
		return fmt.Errorf("failed to put subscription: %w", err)
	}
	return nil
}

// SaveNotificationLog pushes the entry to a capped list, newest first.
func (s *Store) SaveNotificationLog(ctx context.Context, log *models.PaymentNotificationLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = s.now()
	}
	log.UpdatedAt = log.CreatedAt
	b, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to encode notification log: %w", err)
	}
	key := s.notificationLogKey()
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, b)
		pipe.LTrim(ctx, key, 0, s.logCap-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save notification log: %w", err)
	}
	return nil
}

func (s *Store) getJSON(ctx context.Context, key string, dst any) error {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return store.ErrNotFound
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) setJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, 0).Err()
}
