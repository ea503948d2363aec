package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/pkg/types"
)

// ErrNotFound is returned by Get* when no record exists for the key.
var ErrNotFound = errors.New("record not found")

type PaymentStore interface {
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	PutPayment(ctx context.Context, p *models.Payment) error
}

type SubscriptionStore interface {
	GetSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	PutSubscription(ctx context.Context, s *models.Subscription) error
}

type NotificationLogStore interface {
	SaveNotificationLog(ctx context.Context, log *models.PaymentNotificationLog) error
}

// Store is the durable state of the service. Every call is atomic on its
// own; there are no cross-key transactions. Records returned by Get* are
// copies owned by the caller.
type Store interface {
	PaymentStore
	SubscriptionStore
	NotificationLogStore
}

// PaymentScanner is implemented by drivers that can list payments.
type PaymentScanner interface {
	ScanPayments(ctx context.Context, req *ScanPaymentsRequest) (*ScanPaymentsResponse, error)
}

type ScanPaymentsRequest struct {
	Filters   types.CommonFilters `json:"filters"`
	From      int                 `json:"from"`
	Size      int                 `json:"size"`
	SortBy    string              `json:"sort_by"`
	SortOrder string              `json:"sort_order"`
}

type ScanPaymentsResponse struct {
	Items []*models.Payment `json:"items"`
	Total int64             `json:"total"`
}

// PaymentFilterFields are the payment columns callers may filter and sort on.
var PaymentFilterFields = []string{
	"payment_id", "user_id", "plan_id", "status", "processed", "origin", "last_event",
	"succeeded_at", "created_at", "updated_at",
}

const (
	defaultScanSize = 10
	maxScanSize     = 200
)

// Normalize validates filters and clamps paging in place.
func (r *ScanPaymentsRequest) Normalize() error {
	if r == nil {
		return errors.New("nil request")
	}
	for _, f := range r.Filters {
		if err := f.Validate(PaymentFilterFields); err != nil {
			return err
		}
	}
	if r.SortBy != "" && !lo.Contains(PaymentFilterFields, r.SortBy) {
		return fmt.Errorf("sort on field %q is not supported", r.SortBy)
	}
	if r.Size <= 0 {
		r.Size = defaultScanSize
	}
	if r.Size > maxScanSize {
		r.Size = maxScanSize
	}
	if r.From < 0 {
		r.From = 0
	}
	return nil
}
