package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	nh "github.com/fatflowers/payrecon/internal/app/service/notification_handler"
	"github.com/fatflowers/payrecon/internal/app/service/reconciler"
	"github.com/fatflowers/payrecon/pkg/logctx"
	"github.com/fatflowers/payrecon/pkg/response"
	"github.com/fatflowers/payrecon/pkg/types"
)

// WebhookHandler is the part of the notification handler the webhook route needs.
type WebhookHandler interface {
	HandleNotification(ctx context.Context, provider types.PaymentProvider, body []byte) (*reconciler.Result, error)
}

// @Summary      YooKassa Webhook
// @Description  Handles YooKassa payment notifications. Every handled or ignorable notification is acknowledged with HTTP 200 and an empty envelope; storage failures answer HTTP 500 so YooKassa retries.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body handlers.SwaggerYooKassaNotification true "YooKassa notification"
// @Success      200  {object}  handlers.RespOK
// @Failure      500  {object}  handlers.RespOK
// @Router       /api/v1/payment/webhook/yookassa [post]
// @Router       /webhook [post]
// ApiYooKassaWebhook handles YooKassa HTTP notifications
func ApiYooKassaWebhook(h WebhookHandler, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		lg := logctx.FromGin(c, log)
		body, err := c.GetRawData()
		if err != nil {
			lg.Warnw("webhook_yookassa_read_error", "error", err.Error())
			c.JSON(http.StatusOK, response.Generic(response.APIResponseCodeBadRequest))
			return
		}

		// the outcome stays in the logs; the sender only needs the ack
		_, err = h.HandleNotification(c.Request.Context(), types.PaymentProviderYooKassa, body)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, response.OKT[any](nil))
		case errors.Is(err, nh.ErrMalformedNotification):
			lg.Warnw("webhook_yookassa_malformed", "error", err.Error())
			c.JSON(http.StatusOK, response.Generic(response.APIResponseCodeBadRequest))
		case errors.Is(err, reconciler.ErrInvalidInput):
			// retrying an unusable notification cannot succeed
			lg.Warnw("webhook_yookassa_invalid", "error", err.Error())
			c.JSON(http.StatusOK, response.OKT[any](nil))
		default:
			lg.Errorw("webhook_yookassa_handle_error", "error", err.Error())
			c.JSON(http.StatusInternalServerError, response.Generic(response.APIResponseCodeError))
		}
	}
}

func RegisterPaymentWebhookRoutes(r gin.IRouter, h WebhookHandler, log *zap.SugaredLogger) {
	// Mount under provided group, expected at "/api/v1/payment/webhook"
	r.POST("/yookassa", ApiYooKassaWebhook(h, log))
}
