package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

// Subscription stores the paid-through date of a user.
// Use Active() to determine whether the subscription is currently valid.
type Subscription struct {
	UserID  string    `gorm:"column:user_id;type:varchar(64);primary_key" json:"user_id"`
	EndDate time.Time `gorm:"column:end_date;not null" json:"end_date"`
	// AppliedPaymentIDs lists every payment whose days are already included in EndDate.
	AppliedPaymentIDs datatypes.JSONSlice[string] `gorm:"column:applied_payment_ids" json:"applied_payment_ids"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscription"
}

func (s *Subscription) Active(now time.Time) bool {
	return s != nil && s.EndDate.After(now)
}

func (s *Subscription) HasApplied(paymentID string) bool {
	return s != nil && slices.Contains(s.AppliedPaymentIDs, paymentID)
}

func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	cp := *s
	cp.AppliedPaymentIDs = slices.Clone(s.AppliedPaymentIDs)
	return &cp
}
