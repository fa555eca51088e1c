package graph

import (
	"context"
	"fmt"
	"log/slog"

	"polygraph/internal/domain"
)

// Verifier runs the read-only audit pass over the loaded graph. Integrity
// violations are soft warnings; the pipeline's exit status never depends on
// the verification result.
type Verifier struct {
	store  domain.GraphReader
	topN   int
	logger *slog.Logger
}

// NewVerifier creates a Verifier reading through the given store handle.
func NewVerifier(store domain.GraphReader, topN int, logger *slog.Logger) *Verifier {
	if topN <= 0 {
		topN = 5
	}
	return &Verifier{
		store:  store,
		topN:   topN,
		logger: logger,
	}
}

// Run assembles the full verification report.
func (v *Verifier) Run(ctx context.Context) (domain.VerifyReport, error) {
	var report domain.VerifyReport
	var err error

	if report.Nodes, err = v.store.NodeCounts(ctx); err != nil {
		return report, fmt.Errorf("verifier: node counts: %w", err)
	}
	if report.Edges, err = v.store.EdgeCounts(ctx); err != nil {
		return report, fmt.Errorf("verifier: edge counts: %w", err)
	}
	if report.Integrity, err = v.store.IntegrityChecks(ctx); err != nil {
		return report, fmt.Errorf("verifier: integrity checks: %w", err)
	}
	if report.Resolution, err = v.store.ResolutionStats(ctx); err != nil {
		return report, fmt.Errorf("verifier: resolution stats: %w", err)
	}
	if report.Volume, err = v.store.VolumeStats(ctx); err != nil {
		return report, fmt.Errorf("verifier: volume stats: %w", err)
	}
	if report.TopTraders, err = v.store.TopTraders(ctx, v.topN); err != nil {
		return report, fmt.Errorf("verifier: top traders: %w", err)
	}
	if report.TopMarkets, err = v.store.TopMarkets(ctx, v.topN); err != nil {
		return report, fmt.Errorf("verifier: top markets: %w", err)
	}
	if report.TopEvents, err = v.store.TopEvents(ctx, v.topN); err != nil {
		return report, fmt.Errorf("verifier: top events: %w", err)
	}

	v.log(report)
	return report, nil
}

// log emits the report through the structured logger.
func (v *Verifier) log(r domain.VerifyReport) {
	v.logger.Info("graph node counts",
		slog.Int64("events", r.Nodes.Events),
		slog.Int64("markets", r.Nodes.Markets),
		slog.Int64("outcomes", r.Nodes.Outcomes),
		slog.Int64("users", r.Nodes.Users),
		slog.Int64("trades", r.Nodes.Trades),
	)

	for _, e := range r.Edges {
		v.logger.Info("graph edge count",
			slog.String("type", e.Type),
			slog.Int64("count", e.Count),
		)
	}

	for _, c := range r.Integrity {
		if c.Violations == 0 {
			v.logger.Debug("integrity check passed", slog.String("check", c.Name))
			continue
		}
		v.logger.Warn("integrity check found violations",
			slog.String("check", c.Name),
			slog.Int64("violations", c.Violations),
		)
	}

	v.logger.Info("market resolution",
		slog.Int64("total", r.Resolution.Total),
		slog.Int64("resolved", r.Resolution.Resolved),
		slog.Int64("closed", r.Resolution.Closed),
		slog.Int64("active", r.Resolution.Active),
	)

	v.logger.Info("trade volume",
		slog.Int64("trades", r.Volume.TradeCount),
		slog.Float64("total_usdc", r.Volume.TotalVolume),
		slog.Float64("avg_usdc", r.Volume.AvgTradeSize),
		slog.Int64("buys", r.Volume.BuyCount),
		slog.Int64("sells", r.Volume.SellCount),
	)

	for i, t := range r.TopTraders {
		v.logger.Info("top trader",
			slog.Int("rank", i+1),
			slog.String("address", t.Address),
			slog.Float64("volume_usdc", t.Volume),
			slog.Int64("trades", t.TradeCount),
		)
	}
	for i, m := range r.TopMarkets {
		v.logger.Info("top market",
			slog.Int("rank", i+1),
			slog.String("question", m.Question),
			slog.Float64("volume_usdc", m.Volume),
		)
	}
	for i, e := range r.TopEvents {
		v.logger.Info("top event",
			slog.Int("rank", i+1),
			slog.String("title", e.Title),
			slog.String("category", e.Category),
			slog.Float64("volume_usdc", e.Volume),
		)
	}
}
