package storage

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/internal/platform/cache"
	"github.com/fatflowers/payrecon/internal/platform/db"
	"github.com/fatflowers/payrecon/internal/store"
	"github.com/fatflowers/payrecon/internal/store/gormstore"
	"github.com/fatflowers/payrecon/internal/store/redisstore"
	"github.com/fatflowers/payrecon/pkg/config"
)

// Module provides store.Store for the configured driver, plus a
// *redis.Client whenever the store or the guard needs one.
func Module(cfg *config.Config) fx.Option {
	var opts []fx.Option

	if cfg.Store.Driver == config.StoreDriverRedis || cfg.Guard.Driver == config.GuardDriverRedis {
		opts = append(opts, fx.Provide(cache.NewClient))
	}

	switch cfg.Store.Driver {
	case config.StoreDriverPostgres, config.StoreDriverMySQL:
		opts = append(opts,
			fx.Provide(db.Open),
			fx.Invoke(db.AutoMigrate),
			fx.Invoke(db.RegisterClose),
			fx.Provide(
				fx.Annotate(gormstore.New, fx.As(new(store.Store), new(store.PaymentScanner))),
			),
		)
	case config.StoreDriverRedis:
		opts = append(opts, fx.Provide(func(rdb *redis.Client) store.Store {
			return redisstore.New(rdb, cfg.Redis.KeyPrefix)
		}))
	default:
		opts = append(opts, fx.Provide(func(l *zap.SugaredLogger) store.Store {
			l.Warnw("using in-memory store, state is lost on restart")
			return store.NewMemory()
		}))
	}
	return fx.Options(opts...)
}
