package types

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
)

type UserSubscriptionInfo struct {
	UserID            string             `json:"user_id"`
	Status            SubscriptionStatus `json:"status"`
	EndDate           time.Time          `json:"end_date"`
	AppliedPaymentIDs []string           `json:"applied_payment_ids"`
	UpdatedAt         time.Time          `json:"updated_at"`
}
