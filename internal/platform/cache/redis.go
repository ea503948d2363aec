package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/pkg/config"
)

// NewClient connects to redis.addr and pings it once, so a bad address
// fails startup instead of the first webhook.
func NewClient(lc fx.Lifecycle, l *zap.SugaredLogger, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect redis at %s: %w", cfg.Redis.Addr, err)
	}
	l.Infow("connected to redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)

	lc.Append(fx.StopHook(func() error {
		l.Infow("closing redis client")
		return rdb.Close()
	}))
	return rdb, nil
}
