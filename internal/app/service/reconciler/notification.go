package reconciler

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/fatflowers/payrecon/pkg/types"
)

// Notification is one processor report about a payment.
type Notification struct {
	Event     types.PaymentEvent
	PaymentID string
	Status    types.PaymentStatus
	// Metadata is read only when no record exists for PaymentID yet.
	Metadata Metadata
	// ReceivedAt is the reference time for a subscription extension; zero means now.
	ReceivedAt time.Time
}

// Metadata is the bag the order flow attached to the payment at creation.
// Values arrive as strings or JSON numbers.
type Metadata map[string]any

var errIncompleteMetadata = errors.New("incomplete metadata")

type seed struct {
	userID string
	planID string
	days   int
}

// planKeys lists accepted plan id keys; the order bot historically sent subscription_id.
var planKeys = []string{"plan_id", "subscription_id"}

// seed extracts what is needed to synthesize a payment record. It returns
// errIncompleteMetadata when a key is missing and ErrInvalidInput when a key
// is present but unusable.
func (m Metadata) seed() (*seed, error) {
	var s seed
	var err error

	if s.userID, err = m.str("user_id"); err != nil {
		return nil, err
	}
	for _, k := range planKeys {
		if s.planID, err = m.str(k); err == nil {
			break
		}
		if !errors.Is(err, errIncompleteMetadata) {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	raw, ok := m["days"]
	if !ok || raw == nil || raw == "" {
		return nil, errIncompleteMetadata
	}
	if s.days, err = cast.ToIntE(raw); err != nil {
		return nil, invalidInput("metadata days %v: %v", raw, err)
	}
	if s.days <= 0 {
		return nil, invalidInput("metadata days must be positive, got %d", s.days)
	}
	return &s, nil
}

func (m Metadata) str(key string) (string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return "", errIncompleteMetadata
	}
	v, err := cast.ToStringE(raw)
	if err != nil {
		return "", invalidInput("metadata %s %v: %v", key, raw, err)
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", errIncompleteMetadata
	}
	return v, nil
}
