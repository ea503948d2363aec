package logctx

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Keys shared by gin.Context and context.Context. Gin copies string keys
// from c.Set into c.Value lookups, so plain strings keep both views in sync.
const (
	LoggerKey    = "logger"
	TraceIDKey   = "traceID"
	PaymentIDKey = "payment_id"
	UserIDKey    = "user_id"
)

// FromGin returns a request-scoped logger from gin.Context if present,
// otherwise returns the provided base logger.
func FromGin(c *gin.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return base
	}
	if l, ok := c.Get(LoggerKey); ok {
		if lg, ok := l.(*zap.SugaredLogger); ok && lg != nil {
			return lg
		}
	}
	return FromCtx(c.Request.Context(), base)
}

// FromCtx returns the logger stored in ctx, enriched with the payment and
// user ids attached by WithPaymentID / WithUserID. Without a stored logger,
// base is enriched with whatever ids the context carries.
func FromCtx(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if ctx == nil {
		return base
	}
	lg := base
	if stored, ok := ctx.Value(LoggerKey).(*zap.SugaredLogger); ok && stored != nil {
		lg = stored
	} else if tid, ok := ctx.Value(TraceIDKey).(string); ok && tid != "" {
		lg = lg.With("trace_id", tid)
	}

	var fields []interface{}
	if pid, ok := ctx.Value(PaymentIDKey).(string); ok && pid != "" {
		fields = append(fields, "payment_id", pid)
	}
	if uid, ok := ctx.Value(UserIDKey).(string); ok && uid != "" {
		fields = append(fields, "user_id", uid)
	}
	if len(fields) > 0 {
		return lg.With(fields...)
	}
	return lg
}

func WithLogger(ctx context.Context, lg *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, LoggerKey, lg)
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	tid, _ := ctx.Value(TraceIDKey).(string)
	return tid
}

func WithPaymentID(ctx context.Context, paymentID string) context.Context {
	return context.WithValue(ctx, PaymentIDKey, paymentID)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
