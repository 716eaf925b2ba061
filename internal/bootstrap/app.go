package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/farmcast/internal/infra/config"
)

// Background is a job that runs alongside the HTTP server.
type Background interface {
	Start() error
	Stop()
}

// App encapsulates the HTTP server lifecycle and its background jobs.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *http.Server
	jobs    []Background
	closers []io.Closer
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, jobs []Background, closers []io.Closer) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, jobs: jobs, closers: closers}
}

// Run starts the HTTP server and background jobs and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	var started []Background
	defer func() { a.release(started) }()
	for _, job := range a.jobs {
		if err := job.Start(); err != nil {
			return err
		}
		started = append(started, job)
	}

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// release stops the started jobs first so nothing enqueues or publishes into a closed resource.
func (a *App) release(started []Background) {
	for _, job := range started {
		job.Stop()
	}
	for _, closer := range a.closers {
		if err := closer.Close(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}
