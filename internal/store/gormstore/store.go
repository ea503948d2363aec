package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/internal/store"
)

// Store persists records in postgres or mysql through GORM.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var (
	_ store.Store          = (*Store)(nil)
	_ store.PaymentScanner = (*Store)(nil)
)

func (s *Store) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	var p models.Payment
	if err := s.db.WithContext(ctx).Where("payment_id = ?", paymentID).Take(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

// PutPayment upserts by primary key; created_at keeps its first value.
func (s *Store) PutPayment(ctx context.Context, p *models.Payment) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(p).Error; err != nil {
		return fmt.Errorf("failed to put payment: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

func (s *Store) PutSubscription(ctx context.Context, sub *models.Subscription) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(sub).Error; err != nil {
		return fmt.Errorf("failed to put subscription: %w", err)
	}
	return nil
}

func (s *Store) SaveNotificationLog(ctx context.Context, log *models.PaymentNotificationLog) error {
	if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("failed to save notification log: %w", err)
	}
	return nil
}

func (s *Store) ScanPayments(ctx context.Context, req *store.ScanPaymentsRequest) (*store.ScanPaymentsResponse, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Model(&models.Payment{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{req.Filters}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	var rows []*models.Payment
	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return &store.ScanPaymentsResponse{Items: rows, Total: total}, nil
}

// AutoMigrate creates or updates the tables this store writes to.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Payment{},
		&models.Subscription{},
		&models.PaymentNotificationLog{},
	)
}
