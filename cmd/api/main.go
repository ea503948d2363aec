package main

// @title           Payment Reconciliation API
// @version         1.0
// @description     YooKassa payment notification reconciliation service.

// @host      localhost:8888
// @BasePath  /

// @securityDefinitions.apikey  AdminBearer
// @in                          header
// @name                        Authorization

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/internal/app"
	"github.com/fatflowers/payrecon/pkg/config"
)

func main() {
	// Allow graceful stop with SIGINT/SIGTERM handled by fx
	exitCode := 0
	defer func() { os.Exit(exitCode) }()

	cfg, err := config.New()
	if err != nil {
		zap.NewExample().Sugar().Errorf("failed to load config: %v", err)
		exitCode = 1
		return
	}

	a := fx.New(app.Module(cfg), fx.StartTimeout(app.DefaultStartTimeout), fx.StopTimeout(app.DefaultStopTimeout))
	startCtx, cancel := context.WithTimeout(context.Background(), app.DefaultStartTimeout)
	defer cancel()
	if err := a.Start(startCtx); err != nil {
		// Logging might not be ready; fallback to zap example
		zap.NewExample().Sugar().Errorf("failed to start app: %v", err)
		exitCode = 1
		return
	}

	// Block until signal or a fatal server error
	sig := <-a.Wait()
	exitCode = sig.ExitCode

	stopCtx, cancel2 := context.WithTimeout(context.Background(), app.DefaultStopTimeout)
	defer cancel2()
	if err := a.Stop(stopCtx); err != nil {
		zap.NewExample().Sugar().Errorf("failed to stop app: %v", err)
		exitCode = 1
		return
	}
}
