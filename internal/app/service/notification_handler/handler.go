package notification_handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	notificationlog "github.com/fatflowers/payrecon/internal/app/service/notification_log"
	"github.com/fatflowers/payrecon/internal/app/service/reconciler"
	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/pkg/logctx"
	"github.com/fatflowers/payrecon/pkg/types"
)

// ErrMalformedNotification is returned when a body cannot be decoded into a notification.
var ErrMalformedNotification = errors.New("malformed notification")

type Reconciler interface {
	Reconcile(ctx context.Context, n *reconciler.Notification) (*reconciler.Result, error)
}

type NotificationHandler struct {
	notifSvc   *notificationlog.Service
	reconciler Reconciler
	Logger     *zap.SugaredLogger
	now        func() time.Time
}

func NewNotificationHandler(notif *notificationlog.Service, rec Reconciler, log *zap.SugaredLogger) *NotificationHandler {
	return &NotificationHandler{notifSvc: notif, reconciler: rec, Logger: log, now: time.Now}
}

// HandleNotification decodes a provider webhook body, records it, and reconciles it.
func (h *NotificationHandler) HandleNotification(ctx context.Context, provider types.PaymentProvider, body []byte) (res *reconciler.Result, resErr error) {
	var parser NotificationParser
	var err error
	switch provider {
	case types.PaymentProviderYooKassa:
		parser, err = GetYooKassaNotificationParser(body, h.now())
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	if err != nil {
		h.notifSvc.Save(ctx, &models.PaymentNotificationLog{
			ProviderID:       provider,
			NotificationTime: h.now().UTC(),
			Data:             rawData(body),
			Result:           resultJSON(nil, err),
			Status:           models.PaymentNotificationLogStatusHandleFailed,
		})
		return nil, fmt.Errorf("%w: %v", ErrMalformedNotification, err)
	}

	paymentID := parser.GetPaymentID(ctx)
	ctx = logctx.WithPaymentID(ctx, paymentID)
	var userID *string
	if v, e := parser.GetUserID(ctx); e == nil {
		userID = lo.ToPtr(v)
	}
	dataBytes, _ := json.Marshal(parser.GetData(ctx))

	h.notifSvc.Save(ctx, &models.PaymentNotificationLog{
		ProviderID:       provider,
		Event:            parser.GetEvent(ctx),
		PaymentID:        paymentID,
		UserID:           userID,
		NotificationTime: parser.GetNotificationTime(ctx),
		Data:             datatypes.JSON(dataBytes),
		Status:           models.PaymentNotificationLogStatusReceived,
	})

	defer func() {
		status := models.PaymentNotificationLogStatusHandled
		if resErr != nil {
			status = models.PaymentNotificationLogStatusHandleFailed
		}
		if res != nil && res.UserID != "" {
			userID = lo.ToPtr(res.UserID)
		}
		h.notifSvc.Save(ctx, &models.PaymentNotificationLog{
			ProviderID:       provider,
			Event:            parser.GetEvent(ctx),
			PaymentID:        paymentID,
			UserID:           userID,
			NotificationTime: h.now().UTC(),
			Data:             datatypes.JSON(dataBytes),
			Result:           resultJSON(res, resErr),
			Status:           status,
		})
	}()

	res, resErr = h.reconciler.Reconcile(ctx, parser.GetNotification(ctx))
	if resErr == nil {
		logctx.FromCtx(ctx, h.Logger).Infow("notification handled", "event", parser.GetEvent(ctx), "outcome", res.Outcome)
	}
	return res, resErr
}

func resultJSON(res *reconciler.Result, err error) *datatypes.JSON {
	payload := map[string]any{"result": res}
	if err != nil {
		payload["error"] = err.Error()
	}
	b, _ := json.Marshal(payload)
	return lo.ToPtr(datatypes.JSON(b))
}

// rawData keeps an undecodable body as a JSON string so it still fits a JSON column.
func rawData(body []byte) datatypes.JSON {
	if json.Valid(body) {
		return datatypes.JSON(body)
	}
	b, _ := json.Marshal(string(body))
	return datatypes.JSON(b)
}

var Module = fx.Options(
	fx.Provide(
		func(r *reconciler.Reconciler) Reconciler { return r },
		NewNotificationHandler,
	),
)
