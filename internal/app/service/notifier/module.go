package notifier

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/pkg/config"
)

func newSender(cfg *config.Config, log *zap.SugaredLogger) Sender {
	if cfg.Notifier.Driver == config.NotifierDriverTelegram {
		return NewTelegramSender(cfg.Notifier.TelegramToken, cfg.Notifier.Timeout)
	}
	log.Infow("telegram token not configured, confirmations go to the log")
	return NewLogSender(log)
}

func drainOnStop(lc fx.Lifecycle, n *Notifier, log *zap.SugaredLogger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Infow("waiting for in-flight notifications")
			return n.Wait(ctx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newSender, New),
	fx.Invoke(drainOnStop),
)
