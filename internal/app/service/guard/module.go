package guard

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/fatflowers/payrecon/pkg/config"
)

func Module(cfg *config.Config) fx.Option {
	if cfg.Guard.Driver == config.GuardDriverRedis {
		return fx.Provide(func(rdb *redis.Client) Locker {
			return NewRedis(rdb, cfg.Redis.KeyPrefix, cfg.Guard.LockTTL, cfg.Guard.LockTimeout, cfg.Guard.RetryInterval)
		})
	}
	return fx.Provide(func() Locker {
		return NewLocal(cfg.Guard.LockTimeout)
	})
}
