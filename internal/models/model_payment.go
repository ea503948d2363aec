package models

import (
	"time"

	"github.com/fatflowers/payrecon/pkg/types"
)

// Payment is the reconciliation state of one YooKassa payment.
type Payment struct {
	PaymentID string              `gorm:"column:payment_id;type:varchar(64);primary_key" json:"payment_id"`
	UserID    string              `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	PlanID    string              `gorm:"column:plan_id;type:varchar(64);not null" json:"plan_id"`
	Days      int                 `gorm:"column:days;not null" json:"days"`
	Status    types.PaymentStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	// Processed is set once the success side effects were started; it never flips back.
	Processed bool                `gorm:"column:processed;not null" json:"processed"`
	Origin    types.PaymentOrigin `gorm:"column:origin;type:varchar(16);not null" json:"origin"`
	LastEvent string              `gorm:"column:last_event;type:varchar(64)" json:"last_event"`
	// SucceededAt is the reference time the subscription extension was computed from.
	SucceededAt *time.Time `gorm:"column:succeeded_at" json:"succeeded_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payment"
}

func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	cp := *p
	if p.SucceededAt != nil {
		t := *p.SucceededAt
		cp.SucceededAt = &t
	}
	return &cp
}
