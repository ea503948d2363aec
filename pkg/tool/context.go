package tool

import (
	"context"
	"time"
)

// WithTimeout is context.WithTimeout that treats d <= 0 as "no limit".
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
