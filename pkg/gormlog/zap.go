package gormlog

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"github.com/fatflowers/payrecon/pkg/logctx"
)

const defaultSlowThreshold = 500 * time.Millisecond

// ZapLogger implements gorm.io/gorm/logger.Interface on top of zap. Queries
// run inside a reconciliation inherit its trace_id and payment_id through
// logctx.FromCtx.
type ZapLogger struct {
	base          *zap.SugaredLogger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// New returns a logger at Warn level: slow queries and errors only. Every
// webhook does several point reads and writes, logging them all at Info
// would drown the reconciliation log lines.
func New(base *zap.SugaredLogger, slowThreshold time.Duration) *ZapLogger {
	if slowThreshold <= 0 {
		slowThreshold = defaultSlowThreshold
	}
	return &ZapLogger{base: base, level: gormlogger.Warn, slowThreshold: slowThreshold}
}

func (z *ZapLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *z
	cp.level = level
	return &cp
}

func (z *ZapLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if z.level >= gormlogger.Info {
		logctx.FromCtx(ctx, z.base).Infow(msg, "args", data)
	}
}

func (z *ZapLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if z.level >= gormlogger.Warn {
		logctx.FromCtx(ctx, z.base).Warnw(msg, "args", data)
	}
}

func (z *ZapLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if z.level >= gormlogger.Error {
		logctx.FromCtx(ctx, z.base).Errorw(msg, "args", data)
	}
}

func (z *ZapLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if z.level == gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	lg := logctx.FromCtx(ctx, z.base)

	switch {
	// a missing payment is an expected outcome of every first delivery
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && z.level >= gormlogger.Error:
		sql, rows := fc()
		lg.Errorw("gorm_error", "err", err, "sql", sql, "rows", rows, "elapsed_ms", elapsed.Milliseconds(), "caller", shortCaller(utils.FileWithLineNum()))
	case elapsed > z.slowThreshold && z.level >= gormlogger.Warn:
		sql, rows := fc()
		lg.Warnw("gorm_slow", "sql", sql, "rows", rows, "elapsed_ms", elapsed.Milliseconds(), "caller", shortCaller(utils.FileWithLineNum()))
	case z.level >= gormlogger.Info:
		sql, rows := fc()
		lg.Debugw("gorm", "sql", sql, "rows", rows, "elapsed_ms", elapsed.Milliseconds())
	}
}

// shortCaller trims absolute build paths to repo-relative where possible:
//
//	/home/ci/payrecon/internal/store/gormstore/store.go:38 -> internal/store/gormstore/store.go:38
func shortCaller(s string) string {
	if s == "" {
		return s
	}
	pathPart, linePart := s, ""
	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		pathPart, linePart = s[:idx], s[idx:]
	}
	p := filepath.ToSlash(pathPart)
	for _, marker := range []string{"/internal/", "/pkg/", "/cmd/"} {
		if i := strings.Index(p, marker); i >= 0 {
			return p[i+1:] + linePart
		}
	}
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	if n := len(parts); n > 3 {
		parts = parts[n-3:]
	}
	return strings.Join(parts, "/") + linePart
}
