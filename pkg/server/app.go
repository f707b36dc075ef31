package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DepthView/internal/usecase"
	"DepthView/pkg/config"
	xhttp "DepthView/pkg/http"
	applogger "DepthView/pkg/logger"
)

// App encapsulates the application lifecycle: ingestion session, HTTP server,
// signal handling and graceful shutdown.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	collector  *usecase.Collector
	handler    xhttp.Handler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, collector *usecase.Collector, handler xhttp.Handler) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		collector: collector,
		handler:   handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.collector.Start(ctx); err != nil {
		a.log.Error("collector start", applogger.Error(err))
		return err
	}
	a.log.Info("collector started", applogger.String("symbol", a.cfg.Binance.Symbol))

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(a.log, time.Second),
		xhttp.WithMetricsEndpoint(a.cfg.Metrics.Enabled, a.cfg.Metrics.Path),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops ingestion first so no writer touches state while the HTTP
// server drains.
func (a *App) shutdown(ctx context.Context) error {
	if err := a.collector.Stop(); err != nil {
		a.log.Warn("collector stop", applogger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown", applogger.Error(err))
		return err
	}
	a.log.Info("shutdown complete")
	return nil
}
