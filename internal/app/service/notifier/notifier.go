package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/logctx"
	"github.com/fatflowers/payrecon/pkg/metrics"
	"github.com/fatflowers/payrecon/pkg/tool"
)

// Sender delivers one text message to a user.
type Sender interface {
	Send(ctx context.Context, userID, text string) error
}

// FormatConfirmation renders the message a user receives after a payment
// extended their subscription.
func FormatConfirmation(endDate time.Time) string {
	return fmt.Sprintf("Ваш платеж успешно обработан!\nПодписка активна до %s", endDate.UTC().Format("02.01.2006"))
}

// Notifier dispatches confirmations in the background. Send failures are
// logged and counted; callers never see them.
type Notifier struct {
	sender  Sender
	log     *zap.SugaredLogger
	metrics *metrics.ReconcileMetrics
	timeout time.Duration
	wg      sync.WaitGroup
}

func New(cfg *config.Config, sender Sender, log *zap.SugaredLogger, m *metrics.ReconcileMetrics) *Notifier {
	return &Notifier{sender: sender, log: log, metrics: m, timeout: cfg.Notifier.Timeout}
}

// Notify returns immediately. The send outlives the caller's request context
// but is bounded by notifier.timeout.
func (n *Notifier) Notify(ctx context.Context, userID string, endDate time.Time) {
	ctx = logctx.WithUserID(context.WithoutCancel(ctx), userID)
	text := FormatConfirmation(endDate)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		lg := logctx.FromCtx(ctx, n.log)
		defer func() {
			if r := recover(); r != nil {
				lg.Errorw("notifier panicked", "panic", r)
				n.metrics.ObserveNotify(false)
			}
		}()

		sendCtx, cancel := tool.WithTimeout(ctx, n.timeout)
		defer cancel()
		if err := n.sender.Send(sendCtx, userID, text); err != nil {
			lg.Errorw("failed to send payment confirmation", "err", err)
			n.metrics.ObserveNotify(false)
			return
		}
		lg.Infow("sent payment confirmation", "end_date", endDate)
		n.metrics.ObserveNotify(true)
	}()
}

// Wait blocks until in-flight sends finish or ctx is done.
func (n *Notifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
