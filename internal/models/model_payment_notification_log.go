package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/payrecon/pkg/types"
)

type PaymentNotificationLogStatus string

const (
	PaymentNotificationLogStatusReceived     PaymentNotificationLogStatus = "received"
	PaymentNotificationLogStatusHandled      PaymentNotificationLogStatus = "handled"
	PaymentNotificationLogStatusHandleFailed PaymentNotificationLogStatus = "handle_failed"
)

// PaymentNotificationLog is the append-only audit trail of inbound notifications.
type PaymentNotificationLog struct {
	ID               string                       `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	ProviderID       types.PaymentProvider        `gorm:"column:provider_id;type:varchar(64);not null" json:"provider_id"`
	Event            string                       `gorm:"column:event;type:varchar(64)" json:"event"`
	PaymentID        string                       `gorm:"column:payment_id;type:varchar(64);index" json:"payment_id"`
	UserID           *string                      `gorm:"column:user_id;type:varchar(64)" json:"user_id"`
	TraceID          string                       `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	NotificationTime time.Time                    `gorm:"column:notification_time" json:"notification_time"`
	Data             datatypes.JSON               `gorm:"column:data" json:"data"`
	Result           *datatypes.JSON              `gorm:"column:result" json:"result"`
	Status           PaymentNotificationLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt        time.Time                    `json:"created_at"`
	UpdatedAt        time.Time                    `json:"updated_at"`
}

func (PaymentNotificationLog) TableName() string { return "payment_notification_log" }
