package types

type PaymentProvider string

const PaymentProviderYooKassa PaymentProvider = "yookassa"

// PaymentStatus mirrors the YooKassa payment object status.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusWaitingForCapture PaymentStatus = "waiting_for_capture"
	PaymentStatusSucceeded         PaymentStatus = "succeeded"
	PaymentStatusCanceled          PaymentStatus = "canceled"
	PaymentStatusFailed            PaymentStatus = "failed"
)

var paymentStatuses = map[PaymentStatus]struct{}{
	PaymentStatusPending:           {},
	PaymentStatusWaitingForCapture: {},
	PaymentStatusSucceeded:         {},
	PaymentStatusCanceled:          {},
	PaymentStatusFailed:            {},
}

func (s PaymentStatus) Valid() bool {
	_, ok := paymentStatuses[s]
	return ok
}

// Final reports whether the processor never moves a payment out of this status.
func (s PaymentStatus) Final() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusCanceled || s == PaymentStatusFailed
}

type PaymentOrigin string

const (
	// PaymentOriginSeeded records created by the order flow before the payment was sent to the processor.
	PaymentOriginSeeded PaymentOrigin = "seeded"
	// PaymentOriginMetadata records synthesized from notification metadata.
	PaymentOriginMetadata PaymentOrigin = "metadata"
)

type PaymentEvent string

const (
	PaymentEventSucceeded         PaymentEvent = "payment.succeeded"
	PaymentEventWaitingForCapture PaymentEvent = "payment.waiting_for_capture"
	PaymentEventCanceled          PaymentEvent = "payment.canceled"
)

// Handled reports whether notifications of this kind reach the reconciler.
func (e PaymentEvent) Handled() bool {
	switch e {
	case PaymentEventSucceeded, PaymentEventWaitingForCapture, PaymentEventCanceled:
		return true
	default:
		return false
	}
}
