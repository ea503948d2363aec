package notification_log

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/internal/store"
	"github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/logctx"
	"github.com/fatflowers/payrecon/pkg/tool"
)

type Service struct {
	store   store.NotificationLogStore
	log     *zap.SugaredLogger
	timeout time.Duration
	wg      sync.WaitGroup
}

func New(cfg *config.Config, st store.Store, log *zap.SugaredLogger) *Service {
	return &Service{store: st, log: log, timeout: cfg.Store.Timeout}
}

// Save asynchronously persists a payment notification log. Nil input is ignored.
func (s *Service) Save(ctx context.Context, log *models.PaymentNotificationLog) {
	if log == nil {
		return
	}
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	if log.TraceID == "" {
		log.TraceID = logctx.TraceID(ctx)
	}
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		saveCtx, cancel := tool.WithTimeout(ctx, s.timeout)
		defer cancel()
		if err := s.store.SaveNotificationLog(saveCtx, log); err != nil {
			logctx.FromCtx(ctx, s.log).Errorw("failed to save notification log", "status", log.Status, "err", err)
		}
	}()
}

// Wait blocks until pending saves finish or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func drainOnStop(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.StopHook(s.Wait))
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(drainOnStop),
)
