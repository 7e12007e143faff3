package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	drepo "ETFScraper/internal/domain/repository"
	"ETFScraper/pkg/config"
	xhttp "ETFScraper/pkg/http"
	applogger "ETFScraper/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	events      drepo.EventPublisher
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	events drepo.EventPublisher,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	a := &App{
		cfg:         cfg,
		log:         l,
		httpHandler: handler,
		events:      events,
	}

	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.AllowedOrigins()),
		xhttp.WithLogger(l),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path))
	}
	a.httpServer = xhttp.NewServer(handler, opts...)
	return a
}

// Server returns the HTTP server.
func (a *App) Server() *xhttp.Server { return a.httpServer }

// Run starts the application and blocks until interrupted or the listener
// fails.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the HTTP server and shuts down when ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	a.log.Info("starting",
		applogger.String("env", a.cfg.Environment),
		applogger.String("addr", a.httpServer.Addr()),
		applogger.Strings("allowed_origins", a.cfg.AllowedOrigins()),
		applogger.Bool("kafka", a.cfg.Kafka.Enabled),
	)

	a.logRoutes()
	errCh := a.httpServer.Start()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			runErr = err
		}
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (a *App) logRoutes() {
	for _, r := range a.httpServer.Echo().Routes() {
		a.log.Debug("route registered",
			applogger.String("method", r.Method),
			applogger.String("path", r.Path),
		)
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.log.Info("shutting down...")

	var firstErr error
	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}

	// Flush aggregated error logs while the producer is still open.
	a.log.RemoveCollector()

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.log.Warn("event publisher close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return firstErr
}
