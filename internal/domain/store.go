package domain

import "context"

// GraphStore is the write capability required by the graph loader: batched
// merge-by-key upserts per node type plus single-statement rebuilds of the
// derived edge sets. Implementations must make every upsert idempotent
// (create-if-absent, else update-in-place), never an unconditional insert.
type GraphStore interface {
	UpsertEvents(ctx context.Context, events []Event) error
	UpsertMarkets(ctx context.Context, markets []Market) error
	UpsertOutcomes(ctx context.Context, outcomes []Outcome) error
	UpsertUsers(ctx context.Context, users []User) error
	UpsertTrades(ctx context.Context, trades []Trade) error

	// RebuildGroupLinks derives the symmetric SAME_GROUP edge set from
	// markets sharing a non-null neg-risk group id. Returns the number of
	// links present after the rebuild.
	RebuildGroupLinks(ctx context.Context) (int64, error)

	// RebuildHoldings recomputes the HOLDS edge set from all persisted
	// BUY trades grouped by (user, outcome). The aggregation runs inside
	// the store so it reflects exactly what was persisted, including
	// trades from prior runs. Returns the number of holdings.
	RebuildHoldings(ctx context.Context) (int64, error)
}

// GraphReader is the read-only capability required by the verifier.
type GraphReader interface {
	NodeCounts(ctx context.Context) (NodeCounts, error)
	EdgeCounts(ctx context.Context) ([]EdgeCount, error)
	IntegrityChecks(ctx context.Context) ([]IntegrityCheck, error)
	ResolutionStats(ctx context.Context) (ResolutionStats, error)
	VolumeStats(ctx context.Context) (VolumeStats, error)
	TopTraders(ctx context.Context, n int) ([]TraderRank, error)
	TopMarkets(ctx context.Context, n int) ([]MarketRank, error)
	TopEvents(ctx context.Context, n int) ([]EventRank, error)
}
