package reconciler

import (
	"time"

	"github.com/fatflowers/payrecon/pkg/types"
)

type Outcome string

const (
	// OutcomeIgnored: event kind not handled, nothing read or written.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeNotFound: unknown payment without usable metadata.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeStatusUpdated: a non-success status was stored.
	OutcomeStatusUpdated Outcome = "status_updated"
	// OutcomeStale: an in-flight status arrived after the payment succeeded.
	OutcomeStale Outcome = "stale"
	// OutcomeDuplicate: the success was already fully applied.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeSucceeded: the subscription was extended by this call.
	OutcomeSucceeded Outcome = "succeeded"
)

type Result struct {
	Outcome   Outcome             `json:"outcome"`
	PaymentID string              `json:"payment_id"`
	UserID    string              `json:"user_id,omitempty"`
	Status    types.PaymentStatus `json:"status,omitempty"`
	EndDate   *time.Time          `json:"end_date,omitempty"`
	// Synthesized is set when the payment record was created from metadata by this call.
	Synthesized bool `json:"synthesized,omitempty"`
	// Recovered is set when a success recorded earlier had not reached the subscription.
	Recovered bool `json:"recovered,omitempty"`
}
