package notification_handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/fatflowers/payrecon/internal/app/service/reconciler"
	"github.com/fatflowers/payrecon/internal/platform/yookassa"
	"github.com/fatflowers/payrecon/pkg/types"
)

type YooKassaNotificationParser struct {
	NotificationTime time.Time
	Notification     *yookassa.Notification
}

func (p *YooKassaNotificationParser) GetProvider(ctx context.Context) types.PaymentProvider {
	return types.PaymentProviderYooKassa
}

func (p *YooKassaNotificationParser) GetNotificationTime(ctx context.Context) time.Time {
	return p.NotificationTime
}

func (p *YooKassaNotificationParser) GetEvent(ctx context.Context) string {
	return p.Notification.Event
}

func (p *YooKassaNotificationParser) GetUserID(ctx context.Context) (string, error) {
	raw, ok := p.Notification.Object.Metadata["user_id"]
	if !ok || raw == nil {
		return "", fmt.Errorf("metadata user_id is empty")
	}
	userID, err := cast.ToStringE(raw)
	if err != nil {
		return "", fmt.Errorf("metadata user_id: %w", err)
	}
	if userID = strings.TrimSpace(userID); userID == "" {
		return "", fmt.Errorf("metadata user_id is empty")
	}
	return userID, nil
}

func (p *YooKassaNotificationParser) GetPaymentID(ctx context.Context) string {
	return strings.TrimSpace(p.Notification.Object.ID)
}

func (p *YooKassaNotificationParser) GetNotification(ctx context.Context) *reconciler.Notification {
	return &reconciler.Notification{
		Event:      types.PaymentEvent(p.Notification.Event),
		PaymentID:  p.GetPaymentID(ctx),
		Status:     types.PaymentStatus(p.Notification.Object.Status),
		Metadata:   reconciler.Metadata(p.Notification.Object.Metadata),
		ReceivedAt: p.NotificationTime,
	}
}

func (p *YooKassaNotificationParser) GetData(ctx context.Context) any {
	return p.Notification
}

func GetYooKassaNotificationParser(body []byte, notificationTime time.Time) (NotificationParser, error) {
	if notificationTime.IsZero() {
		notificationTime = time.Now()
	}

	notification, err := yookassa.Decode(body)
	if err != nil {
		return nil, err
	}

	return &YooKassaNotificationParser{
		NotificationTime: notificationTime.UTC(),
		Notification:     notification,
	}, nil
}
