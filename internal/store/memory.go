package store

import (
	"context"
	"sync"
	"time"

	"github.com/fatflowers/payrecon/internal/models"
)

// Memory keeps all records in process memory. Used by tests and by the
// memory driver for local runs; state is lost on restart.
type Memory struct {
	mu            sync.RWMutex
	payments      map[string]*models.Payment
	subscriptions map[string]*models.Subscription
	logs          []*models.PaymentNotificationLog
	now           func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		payments:      make(map[string]*models.Payment),
		subscriptions: make(map[string]*models.Subscription),
		now:           time.Now,
	}
}

func (m *Memory) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[paymentID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *Memory) PutPayment(ctx context.Context, p *models.Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if prev, ok := m.payments[p.PaymentID]; ok {
		p.CreatedAt = prev.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.payments[p.PaymentID] = p.Clone()
	return nil
}

func (m *Memory) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subscriptions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *Memory) PutSubscription(ctx context.Context, s *models.Subscription) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if prev, ok := m.subscriptions[s.UserID]; ok {
		s.CreatedAt = prev.CreatedAt
	} else if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.subscriptions[s.UserID] = s.Clone()
	return nil
}

func (m *Memory) SaveNotificationLog(ctx context.Context, log *models.PaymentNotificationLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *log
	m.logs = append(m.logs, &cp)
	return nil
}

// NotificationLogs returns a snapshot of the saved logs in insertion order.
func (m *Memory) NotificationLogs() []models.PaymentNotificationLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.PaymentNotificationLog, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, *l)
	}
	return out
}
