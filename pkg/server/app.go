package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"IntelliMarket/internal/service/ratelimit"
	"IntelliMarket/internal/usecase"
	"IntelliMarket/pkg/config"
	xhttp "IntelliMarket/pkg/http"
	applogger "IntelliMarket/pkg/logger"
)

// pruneInterval controls how often idle rate-limit buckets are dropped.
const pruneInterval = time.Minute

// App encapsulates the display server lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	ctrl       *usecase.Controller
	httpServer *xhttp.Server
	limiter    *ratelimit.Limiter
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	ctrl *usecase.Controller,
	httpServer *xhttp.Server,
	limiter *ratelimit.Limiter,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		ctrl:       ctrl,
		httpServer: httpServer,
		limiter:    limiter,
	}
}

// Controller exposes the analysis controller.
func (a *App) Controller() *usecase.Controller { return a.ctrl }

// Addr returns the listen address.
func (a *App) Addr() string { return a.httpServer.Addr() }

// Run starts the server and blocks until ctx is done, an interrupt arrives,
// or the listener fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	recent := a.ctrl.LoadRecent(ctx)
	a.log.Info("recent history loaded", applogger.Int("entries", len(recent)))

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("display server started",
		applogger.String("addr", a.httpServer.Addr()),
		applogger.String("backend", a.cfg.Backend.BaseURL),
		applogger.Bool("metrics", a.cfg.Metrics.Enabled),
	)

	go a.prune(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case <-sigCh:
		a.log.Info("shutdown signal received")
	case <-ctx.Done():
	case runErr = <-a.httpServer.Errors():
		a.log.Error("http server error", applogger.Error(runErr))
	}

	a.shutdown()
	return runErr
}

func (a *App) prune(ctx context.Context) {
	if a.limiter == nil {
		return
	}
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.limiter.Prune()
		}
	}
}

// shutdown gracefully stops the server. Stores and the producer are closed by
// the cleanup returned from the injector.
func (a *App) shutdown() {
	a.log.Info("shutting down...")
	a.ctrl.Progress().Stop()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	a.log.Info("shutdown complete")
}
