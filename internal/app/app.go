// Package app provides the top-level application lifecycle management for
// polygraph. It wires together the API clients, pipeline stages, graph loader,
// verifier, and the Postgres store, and runs a single ingestion pass.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"polygraph/internal/config"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies and executes one
// full scrape-ingest-load-verify pass, returning once the pass completes or
// the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting ingestion run",
		slog.Int("max_events", a.cfg.Pipeline.MaxEvents),
		slog.Int("trades_per_market", a.cfg.Pipeline.TradesPerMarket),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	return deps.Orchestrator.Run(ctx)
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
