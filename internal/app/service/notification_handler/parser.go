package notification_handler

import (
	"context"
	"time"

	"github.com/fatflowers/payrecon/internal/app/service/reconciler"
	"github.com/fatflowers/payrecon/pkg/types"
)

type NotificationParser interface {
	GetProvider(ctx context.Context) types.PaymentProvider
	GetNotificationTime(ctx context.Context) time.Time
	GetEvent(ctx context.Context) string
	GetUserID(ctx context.Context) (string, error)
	GetPaymentID(ctx context.Context) string
	GetNotification(ctx context.Context) *reconciler.Notification
	GetData(ctx context.Context) any
}
