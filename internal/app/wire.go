package app

import (
	"context"
	"fmt"
	"log/slog"

	"polygraph/internal/config"
	"polygraph/internal/graph"
	"polygraph/internal/pipeline"
	"polygraph/internal/platform/polymarket"
	"polygraph/internal/store/postgres"
)

// Deps holds the fully wired dependency graph for a run.
type Deps struct {
	DB           *postgres.Client
	Store        *postgres.GraphStore
	Gamma        *polymarket.GammaClient
	Data         *polymarket.DataClient
	Orchestrator *pipeline.Orchestrator
}

// Wire constructs all dependencies from the configuration. It returns the
// dependency set plus a cleanup function that releases held resources; the
// cleanup function is safe to call even when Wire returns an error.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	db, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("connect postgres: %w", err)
	}
	closers = append(closers, db.Close)

	if cfg.Database.RunMigrations {
		if err := db.RunMigrations(ctx); err != nil {
			return nil, cleanup, fmt.Errorf("run migrations: %w", err)
		}
	}

	store := postgres.NewGraphStore(db.Pool())

	if cfg.Pipeline.Reset {
		logger.WarnContext(ctx, "resetting graph store before run")
		if err := store.Reset(ctx); err != nil {
			return nil, cleanup, fmt.Errorf("reset graph store: %w", err)
		}
	}

	gamma := polymarket.NewGammaClient(cfg.Polymarket.GammaHost, cfg.Polymarket.RequestTimeout())
	data := polymarket.NewDataClient(cfg.Polymarket.DataHost, cfg.Polymarket.RequestTimeout())

	scraper := pipeline.NewEventScraper(gamma, cfg.Pipeline.EventPageSize, logger)
	fetcher := pipeline.NewTradeFetcher(data, cfg.Pipeline.TradePageSize, cfg.Pipeline.Pace(), logger)
	ingestor := pipeline.NewIngestor(fetcher, cfg.Pipeline.FetchWorkers, cfg.Pipeline.RetryMissing, logger)
	loader := graph.NewLoader(store, cfg.Pipeline.BatchSize, logger)
	verifier := graph.NewVerifier(store, cfg.Pipeline.TopN, logger)

	orch := pipeline.NewOrchestrator(
		scraper, ingestor, loader, verifier,
		cfg.Pipeline.MaxEvents, cfg.Pipeline.TradesPerMarket,
		logger,
	)

	return &Deps{
		DB:           db,
		Store:        store,
		Gamma:        gamma,
		Data:         data,
		Orchestrator: orch,
	}, cleanup, nil
}
