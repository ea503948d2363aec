package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/internal/app/service/reconciler"
	"github.com/fatflowers/payrecon/internal/app/service/statistics"
	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/internal/store"
	"github.com/fatflowers/payrecon/pkg/logctx"
	"github.com/fatflowers/payrecon/pkg/response"
	"github.com/fatflowers/payrecon/pkg/types"
)

type PaymentAdmin interface {
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	RegisterPayment(ctx context.Context, p *models.Payment) (*models.Payment, bool, error)
	Replay(ctx context.Context, paymentID string) (*reconciler.Result, error)
}

type SubscriptionReader interface {
	GetSubscription(ctx context.Context, userID string) (*types.UserSubscriptionInfo, error)
}

type StatisticsReader interface {
	GetStatistic(ctx context.Context, request *statistics.StatisticRequest) (*statistics.StatisticResponse, error)
}

type PaymentItem struct {
	PaymentID   string              `json:"payment_id"`
	UserID      string              `json:"user_id"`
	PlanID      string              `json:"plan_id"`
	Days        int                 `json:"days"`
	Status      types.PaymentStatus `json:"status"`
	Processed   bool                `json:"processed"`
	Origin      types.PaymentOrigin `json:"origin"`
	LastEvent   string              `json:"last_event"`
	SucceededAt *time.Time          `json:"succeeded_at"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func toPaymentItem(m *models.Payment) *PaymentItem {
	return &PaymentItem{
		PaymentID:   m.PaymentID,
		UserID:      m.UserID,
		PlanID:      m.PlanID,
		Days:        m.Days,
		Status:      m.Status,
		Processed:   m.Processed,
		Origin:      m.Origin,
		LastEvent:   m.LastEvent,
		SucceededAt: m.SucceededAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type ListPaymentsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ListPaymentsResponse struct {
	Items []*PaymentItem `json:"items"`
	Total int64          `json:"total"`
}

type RegisterPaymentRequest struct {
	PaymentID string `json:"payment_id"`
	UserID    string `json:"user_id"`
	PlanID    string `json:"plan_id"`
	Days      int    `json:"days"`
}

type RegisterPaymentResponse struct {
	Payment *PaymentItem `json:"payment"`
	Created bool         `json:"created"`
}

// writeAdminError maps service errors onto response codes. Storage detail stays in the log.
func writeAdminError(c *gin.Context, log *zap.SugaredLogger, err error) {
	switch {
	case errors.Is(err, reconciler.ErrInvalidInput):
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
	case errors.Is(err, reconciler.ErrRecordNotFound), errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusOK, response.Generic(response.APIResponseCodeNotFound))
	default:
		logctx.FromGin(c, log).Errorw("admin_request_failed", "path", c.FullPath(), "error", err.Error())
		c.JSON(http.StatusOK, response.Generic(response.APIResponseCodeError))
	}
}

// @Summary      Get Payment (Admin)
// @Description  Returns the stored reconciliation state of one payment.
// @Tags         Admin
// @Produce      json
// @Param        payment_id path string true "Payment id"
// @Success      200  {object}  handlers.RespPayment
// @Router       /api/v1/admin/payments/{payment_id} [get]
func ApiGetPayment(svc PaymentAdmin, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.GetPayment(c.Request.Context(), c.Param("payment_id"))
		if err != nil {
			writeAdminError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(toPaymentItem(p)))
	}
}

// @Summary      Get Subscription (Admin)
// @Description  Returns a user's subscription end date, active flag and applied payments.
// @Tags         Admin
// @Produce      json
// @Param        user_id path string true "User id"
// @Success      200  {object}  handlers.RespSubscription
// @Router       /api/v1/admin/subscriptions/{user_id} [get]
func ApiGetSubscription(svc SubscriptionReader, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.Param("user_id"))
		if userID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing user_id"))
			return
		}
		sub, err := svc.GetSubscription(c.Request.Context(), userID)
		if err != nil {
			writeAdminError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(sub))
	}
}

// @Summary      List Payments (Admin)
// @Description  Retrieves a paginated and filterable list of payments. Requires a SQL store driver.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ListPaymentsRequest true "List payments request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespPaymentList
// @Router       /api/v1/admin/payments/list [post]
func ApiListPayments(scanner store.PaymentScanner, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if scanner == nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "payment listing is not supported by the configured store"))
			return
		}
		var req ListPaymentsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		scanReq := &store.ScanPaymentsRequest{Filters: req.Filters, From: req.From, Size: req.Size, SortBy: req.SortBy, SortOrder: req.SortOrder}
		if err := scanReq.Normalize(); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := scanner.ScanPayments(c.Request.Context(), scanReq)
		if err != nil {
			writeAdminError(c, log, err)
			return
		}
		items := lo.Map(res.Items, func(it *models.Payment, _ int) *PaymentItem { return toPaymentItem(it) })
		c.JSON(http.StatusOK, response.OKT(&ListPaymentsResponse{Items: items, Total: res.Total}))
	}
}

// @Summary      Register Payment (Admin)
// @Description  Records a pending payment before it reaches the processor. An existing record is returned unchanged.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body RegisterPaymentRequest true "Payment to register"
// @Success      200  {object}  handlers.RespRegisterPayment
// @Router       /api/v1/admin/payments [post]
func ApiRegisterPayment(svc PaymentAdmin, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		stored, created, err := svc.RegisterPayment(c.Request.Context(), &models.Payment{
			PaymentID: strings.TrimSpace(req.PaymentID),
			UserID:    strings.TrimSpace(req.UserID),
			PlanID:    strings.TrimSpace(req.PlanID),
			Days:      req.Days,
		})
		if err != nil {
			writeAdminError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(&RegisterPaymentResponse{Payment: toPaymentItem(stored), Created: created}))
	}
}

// @Summary      Replay Payment (Admin)
// @Description  Re-runs a succeeded notification for a stored payment. Already applied payments report a duplicate.
// @Tags         Admin
// @Produce      json
// @Param        payment_id path string true "Payment id"
// @Success      200  {object}  handlers.RespReconcileResult
// @Router       /api/v1/admin/payments/{payment_id}/replay [post]
func ApiReplayPayment(svc PaymentAdmin, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Replay(c.Request.Context(), c.Param("payment_id"))
		if err != nil {
			writeAdminError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Payment Statistics (Admin)
// @Description  Retrieves daily payment and subscription aggregates. Requires a SQL store driver.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.StatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespStatistic
// @Router       /api/v1/admin/statistics [post]
func ApiGetStatistic(stats StatisticsReader, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if stats == nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "statistics are not supported by the configured store"))
			return
		}
		var req statistics.StatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := stats.GetStatistic(c.Request.Context(), &req)
		if err != nil {
			writeAdminError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// RegisterAdminRoutes mounts admin endpoints. scanner and stats may be nil for
// drivers that cannot serve them.
func RegisterAdminRoutes(r gin.IRouter, svc PaymentAdmin, subs SubscriptionReader, scanner store.PaymentScanner, stats StatisticsReader, log *zap.SugaredLogger) {
	r.GET("/payments/:payment_id", ApiGetPayment(svc, log))
	r.POST("/payments/:payment_id/replay", ApiReplayPayment(svc, log))
	r.POST("/payments/list", ApiListPayments(scanner, log))
	r.POST("/payments", ApiRegisterPayment(svc, log))
	r.GET("/subscriptions/:user_id", ApiGetSubscription(subs, log))
	r.POST("/statistics", ApiGetStatistic(stats, log))
}
