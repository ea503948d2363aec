package handlers

import (
	"github.com/fatflowers/payrecon/internal/app/service/reconciler"
	"github.com/fatflowers/payrecon/internal/app/service/statistics"
	"github.com/fatflowers/payrecon/pkg/response"
	"github.com/fatflowers/payrecon/pkg/types"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

type RespHealth struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    HealthStatus             `json:"data"`
}

// RespReconcileResult wraps a reconciliation result in the standard envelope.
type RespReconcileResult struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    reconciler.Result        `json:"data"`
}

type RespPayment struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    PaymentItem              `json:"data"`
}

type RespPaymentList struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    ListPaymentsResponse     `json:"data"`
}

type RespRegisterPayment struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    RegisterPaymentResponse  `json:"data"`
}

type RespSubscription struct {
	Code    response.APIResponseCode   `json:"code"`
	Message string                     `json:"message"`
	Data    types.UserSubscriptionInfo `json:"data"`
}

// RespStatistic wraps StatisticResponse in the standard envelope.
type RespStatistic struct {
	Code    response.APIResponseCode     `json:"code"`
	Message string                       `json:"message"`
	Data    statistics.StatisticResponse `json:"data"`
}

// SwaggerYooKassaNotification documents the webhook body; only the fields read by the service are listed.
type SwaggerYooKassaNotification struct {
	Type   string `json:"type" example:"notification"`
	Event  string `json:"event" example:"payment.succeeded"`
	Object struct {
		ID       string            `json:"id" example:"2c5f1a0e-000f-5000-8000-1a2b3c4d5e6f"`
		Status   string            `json:"status" example:"succeeded"`
		Metadata map[string]string `json:"metadata"`
	} `json:"object"`
}
