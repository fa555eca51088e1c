package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"polygraph/internal/graph"
)

// Orchestrator sequences one full pipeline pass: scrape events, ingest
// trades per market, load the graph, verify. The pass always completes with
// summary counts where possible; partial trade coverage and integrity
// violations are warnings, not failures.
type Orchestrator struct {
	events       *EventScraper
	ingestor     *Ingestor
	loader       *graph.Loader
	verifier     *graph.Verifier
	maxEvents    int
	perMarketCap int
	logger       *slog.Logger
}

// NewOrchestrator creates an Orchestrator for a single pipeline run.
func NewOrchestrator(
	events *EventScraper,
	ingestor *Ingestor,
	loader *graph.Loader,
	verifier *graph.Verifier,
	maxEvents int,
	perMarketCap int,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		events:       events,
		ingestor:     ingestor,
		loader:       loader,
		verifier:     verifier,
		maxEvents:    maxEvents,
		perMarketCap: perMarketCap,
		logger:       logger,
	}
}

// Run executes the pass. It fails only when the store rejects the load;
// event listing and trade fetch failures both degrade to partial data with
// warnings, so the run still completes and reports its counts.
func (o *Orchestrator) Run(ctx context.Context) error {
	logger := o.logger.With(slog.String("run_id", uuid.NewString()))

	logger.Info("pipeline run starting",
		slog.Int("max_events", o.maxEvents),
		slog.Int("per_market_cap", o.perMarketCap),
	)

	events := o.events.Run(ctx, o.maxEvents)
	if len(events) == 0 {
		logger.Warn("event scrape produced no events")
	}

	conditionIDs := ConditionIDs(events)
	logger.Info("events normalized",
		slog.Int("events", len(events)),
		slog.Int("markets", len(conditionIDs)),
	)

	trades, cov := o.ingestor.Run(ctx, conditionIDs, o.perMarketCap)
	if cov.Trades == 0 {
		logger.Warn("no trades fetched for any market",
			slog.Int("requested", cov.Requested),
		)
	}
	logger.Info("trade ingestion complete",
		slog.Int("trades", cov.Trades),
		slog.Int("markets_requested", cov.Requested),
		slog.Int("markets_with_trades", cov.WithTrades),
		slog.Int("markets_missing", len(cov.Missing)),
	)

	counts, err := o.loader.Load(ctx, events, trades)
	if err != nil {
		return fmt.Errorf("graph load: %w", err)
	}

	logger.Info("graph load complete",
		slog.Int("events", counts.Events),
		slog.Int("markets", counts.Markets),
		slog.Int("outcomes", counts.Outcomes),
		slog.Int("users", counts.Users),
		slog.Int("trades", counts.Trades),
		slog.Int("trades_skipped", counts.SkippedTrades),
		slog.Int64("group_links", counts.GroupLinks),
		slog.Int64("holdings", counts.Holdings),
	)

	// Verification is advisory: its outcome never fails the run.
	if report, verr := o.verifier.Run(ctx); verr != nil {
		logger.Warn("verification failed", slog.String("error", verr.Error()))
	} else if v := report.Violations(); v > 0 {
		logger.Warn("verification found integrity violations", slog.Int64("violations", v))
	}

	logger.Info("pipeline run complete")
	return nil
}
