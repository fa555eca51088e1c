package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"polygraph/internal/domain"
)

// missingSampleSize bounds how many missing condition ids are enumerated in
// the warning log.
const missingSampleSize = 5

// Ingestor fans the trade fetcher out across a set of market condition ids.
// The per-market cap is a fairness policy: it applies to each key
// individually, never in aggregate, so one high-volume market cannot starve
// the rest. The ingestor performs no cross-key deduplication; the store's
// upsert-on-key semantics is the sole dedup mechanism across runs.
type Ingestor struct {
	fetcher      *TradeFetcher
	workers      int
	retryMissing bool
	logger       *slog.Logger
}

// NewIngestor creates an Ingestor. workers > 1 enables bounded parallel
// fetching across condition ids; per-key page ordering and per-key caps are
// preserved either way. retryMissing opts in to exactly one re-fetch pass
// over keys that returned zero trades.
func NewIngestor(fetcher *TradeFetcher, workers int, retryMissing bool, logger *slog.Logger) *Ingestor {
	if workers < 1 {
		workers = 1
	}
	return &Ingestor{
		fetcher:      fetcher,
		workers:      workers,
		retryMissing: retryMissing,
		logger:       logger,
	}
}

// Run fetches trades for every condition id, each capped at perMarketCap,
// and concatenates the results. No ordering is guaranteed across keys.
func (in *Ingestor) Run(ctx context.Context, conditionIDs []string, perMarketCap int) ([]domain.Trade, domain.Coverage) {
	trades, byKey := in.fetchAll(ctx, conditionIDs, perMarketCap)

	missing := missingKeys(conditionIDs, byKey)

	if in.retryMissing && len(missing) > 0 && ctx.Err() == nil {
		in.logger.Info("retrying markets with no trades", slog.Int("count", len(missing)))
		retried, retriedByKey := in.fetchAll(ctx, missing, perMarketCap)
		trades = append(trades, retried...)
		for k, n := range retriedByKey {
			byKey[k] += n
		}
		missing = missingKeys(conditionIDs, byKey)
	}

	cov := domain.Coverage{
		Requested:  len(conditionIDs),
		WithTrades: len(conditionIDs) - len(missing),
		Missing:    missing,
		Trades:     len(trades),
	}

	if len(missing) > 0 {
		sample := missing
		if len(sample) > missingSampleSize {
			sample = sample[:missingSampleSize]
		}
		in.logger.Warn("some markets returned no trades",
			slog.Int("missing", len(missing)),
			slog.Int("requested", len(conditionIDs)),
			slog.Any("sample", sample),
		)
	}

	return trades, cov
}

// fetchAll runs one fetch pass over the given keys, returning the combined
// trades and a per-key count. With workers > 1 the keys are fetched
// concurrently under an errgroup limit; appends to the shared accumulator
// are mutex-guarded.
func (in *Ingestor) fetchAll(ctx context.Context, conditionIDs []string, perMarketCap int) ([]domain.Trade, map[string]int) {
	byKey := make(map[string]int, len(conditionIDs))

	if in.workers == 1 {
		var all []domain.Trade
		for _, cid := range conditionIDs {
			if ctx.Err() != nil {
				break
			}
			got := in.fetcher.Fetch(ctx, cid, perMarketCap)
			byKey[cid] = len(got)
			all = append(all, got...)
		}
		return all, byKey
	}

	var (
		mu  sync.Mutex
		all []domain.Trade
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.workers)

	for _, cid := range conditionIDs {
		cid := cid
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			got := in.fetcher.Fetch(gctx, cid, perMarketCap)
			mu.Lock()
			byKey[cid] = len(got)
			all = append(all, got...)
			mu.Unlock()
			return nil
		})
	}
	// Fetch never returns an error, so Wait only observes ctx cancellation.
	_ = g.Wait()

	return all, byKey
}

// missingKeys returns the requested keys for which no trades were fetched,
// in request order.
func missingKeys(requested []string, byKey map[string]int) []string {
	var missing []string
	for _, cid := range requested {
		if byKey[cid] == 0 {
			missing = append(missing, cid)
		}
	}
	return missing
}
