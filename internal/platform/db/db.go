package db

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fatflowers/payrecon/internal/store/gormstore"
	cfgpkg "github.com/fatflowers/payrecon/pkg/config"
	gormzap "github.com/fatflowers/payrecon/pkg/gormlog"
)

// Open connects to the SQL database selected by store.driver.
func Open(l *zap.SugaredLogger, cfg *cfgpkg.Config) (*gorm.DB, error) {
	if cfg.Database.DSN == "" {
		l.Error("database DSN is empty")
		return nil, gorm.ErrInvalidDB
	}

	var dialector gorm.Dialector
	switch cfg.Store.Driver {
	case cfgpkg.StoreDriverPostgres:
		dialector = postgres.Open(cfg.Database.DSN)
	case cfgpkg.StoreDriverMySQL:
		dialector = mysql.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("store driver %s is not a sql driver", cfg.Store.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormzap.New(l, cfg.Database.SlowThreshold)})
	if err != nil {
		l.Errorf("failed to connect database: %v", err)
		return nil, err
	}
	l.Infow("connected to database via DSN", "driver", cfg.Store.Driver)
	return db, nil
}

// AutoMigrate runs GORM migrations on startup
func AutoMigrate(l *zap.SugaredLogger, db *gorm.DB) error {
	if err := gormstore.AutoMigrate(db); err != nil {
		l.Errorf("automigrate failed: %v", err)
		return err
	}
	l.Infow("automigrate completed")
	return nil
}

// RegisterClose ensures the underlying *sql.DB is closed on shutdown
func RegisterClose(lc fx.Lifecycle, l *zap.SugaredLogger, gdb *gorm.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				l.Warnw("gorm: get sql.DB failed", "err", err)
				return nil
			}
			l.Infow("closing database connection pool")
			return sqlDB.Close()
		},
	})
}
