package logger

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fatflowers/payrecon/pkg/config"
)

func New(cfg *config.Config) (*zap.SugaredLogger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg != nil && cfg.Env == config.EnvDev {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.TimeKey = "time"

	if cfg != nil && cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = level
	}

	l, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func flushOnStop(lc fx.Lifecycle, log *zap.SugaredLogger) {
	lc.Append(fx.StopHook(func() {
		// stderr sync fails on some platforms; nothing useful to do about it
		_ = log.Sync()
	}))
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(flushOnStop),
)
