package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/payrecon/internal/app/api/server"
	"github.com/fatflowers/payrecon/internal/app/service/guard"
	notificationhandler "github.com/fatflowers/payrecon/internal/app/service/notification_handler"
	notificationlog "github.com/fatflowers/payrecon/internal/app/service/notification_log"
	"github.com/fatflowers/payrecon/internal/app/service/notifier"
	"github.com/fatflowers/payrecon/internal/app/service/reconciler"
	"github.com/fatflowers/payrecon/internal/app/service/statistics"
	"github.com/fatflowers/payrecon/internal/app/service/subscription"
	"github.com/fatflowers/payrecon/internal/platform/storage"
	"github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/logger"
	"github.com/fatflowers/payrecon/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	// DefaultStopTimeout covers draining HTTP, notification logs and confirmations.
	DefaultStopTimeout = 45 * time.Second
)

// Module assembles the application for a loaded config; drivers are chosen from it.
func Module(cfg *config.Config) fx.Option {
	return fx.Options(
		config.Module(cfg),
		logger.Module,
		metrics.Module,
		storage.Module(cfg),
		guard.Module(cfg),
		subscription.Module,
		notifier.Module,
		reconciler.Module,
		statistics.Module(cfg),
		notificationlog.Module,
		notificationhandler.Module,
		server.Module,
	)
}
