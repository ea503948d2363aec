package guard

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a key stays held past the wait budget.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// Locker runs fn with exclusive access to key. Calls for different keys
// never block each other. fn receives the caller's ctx, not the wait
// deadline, so a slow acquisition does not shorten the critical section.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

func PaymentKey(paymentID string) string {
	return "payment:" + paymentID
}

func UserKey(userID string) string {
	return "user:" + userID
}
