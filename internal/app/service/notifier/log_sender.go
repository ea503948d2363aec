package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/pkg/logctx"
)

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log *zap.SugaredLogger
}

func NewLogSender(log *zap.SugaredLogger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, userID, text string) error {
	logctx.FromCtx(ctx, s.log).Infow("notification", "to", userID, "text", text)
	return nil
}
