package yookassa

import (
	"encoding/json"
	"errors"
	"time"
)

// Notification is the body YooKassa POSTs to the webhook endpoint.
//
//	{"type":"notification","event":"payment.succeeded","object":{"id":"2f1e...","status":"succeeded",...}}
type Notification struct {
	Type   string        `json:"type"`
	Event  string        `json:"event"`
	Object PaymentObject `json:"object"`
}

// PaymentObject is the subset of the YooKassa payment object the service reads.
type PaymentObject struct {
	ID          string         `json:"id"`
	Status      string         `json:"status"`
	Paid        bool           `json:"paid"`
	Amount      *Amount        `json:"amount,omitempty"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"`
	CapturedAt  *time.Time     `json:"captured_at,omitempty"`
	Test        bool           `json:"test"`
}

type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

var ErrEmptyBody = errors.New("empty notification body")

// Decode parses a raw webhook body. Unknown fields are ignored so new
// processor attributes never break intake.
func Decode(body []byte) (*Notification, error) {
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, err
	}
	return &n, nil
}
