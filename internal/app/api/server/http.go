package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/docs"
	"github.com/fatflowers/payrecon/internal/app/api/handlers"
	mw "github.com/fatflowers/payrecon/internal/app/api/middleware"
	nh "github.com/fatflowers/payrecon/internal/app/service/notification_handler"
	"github.com/fatflowers/payrecon/internal/app/service/reconciler"
	"github.com/fatflowers/payrecon/internal/app/service/statistics"
	subsvc "github.com/fatflowers/payrecon/internal/app/service/subscription"
	"github.com/fatflowers/payrecon/internal/store"
	cfgpkg "github.com/fatflowers/payrecon/pkg/config"
	metrics "github.com/fatflowers/payrecon/pkg/metrics"
)

const shutdownTimeout = 30 * time.Second

func newEngine(p *metrics.Prometheus) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	p.Use(r)
	return r
}

type routeParams struct {
	fx.In

	Engine       *gin.Engine
	Log          *zap.SugaredLogger
	Cfg          *cfgpkg.Config
	NotifHandler *nh.NotificationHandler
	Reconciler   *reconciler.Reconciler
	Subs         *subsvc.Service
	// Scanner is only provided by SQL store drivers.
	Scanner store.PaymentScanner `optional:"true"`
	Stats   *statistics.Service  `optional:"true"`
}

func registerRoutes(p routeParams) {
	r, log := p.Engine, p.Log

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	// path the payment bot has always given YooKassa
	pub.POST("/webhook", handlers.ApiYooKassaWebhook(p.NotifHandler, log))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterPaymentWebhookRoutes(apiV1.Group("/payment/webhook"), p.NotifHandler, log)

	admin := apiV1.Group("/admin")
	admin.Use(mw.AdminAuthMiddleware(p.Cfg.Admin.JWTSecret, log))
	// a nil *statistics.Service must stay a nil interface
	var stats handlers.StatisticsReader
	if p.Stats != nil {
		stats = p.Stats
	}
	handlers.RegisterAdminRoutes(admin, p.Reconciler, p.Subs, p.Scanner, stats, log)
}

// serve binds addr up front so a busy port fails startup, then serves in the
// background. A serve error after startup stops the whole app.
func serve(lc fx.Lifecycle, sd fx.Shutdowner, log *zap.SugaredLogger, name string, srv *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("%s listen on %s: %w", name, srv.Addr, err)
			}
			log.Infow("starting "+name, "addr", ln.Addr().String())
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorw(name+" error", "err", err)
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping " + name)
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

func runServer(lc fx.Lifecycle, sd fx.Shutdowner, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	serve(lc, sd, log, "HTTP server", &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second})
}

// runMetricsServer exposes Prometheus on its own listener so scrapes never
// reach the public engine.
func runMetricsServer(lc fx.Lifecycle, sd fx.Shutdowner, log *zap.SugaredLogger, cfg *cfgpkg.Config, p *metrics.Prometheus) {
	if cfg.MetricsAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle(p.MetricsPath, p.Handler())
	serve(lc, sd, log, "metrics server", &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
	fx.Invoke(runMetricsServer),
)
