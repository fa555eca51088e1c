// Package graph materializes normalized collections as a property graph and
// audits the result. Nodes and edges are written through the
// domain.GraphStore capability with merge-on-key semantics, so repeated
// loads of the same inputs leave the graph unchanged.
package graph

import (
	"context"
	"fmt"
	"log/slog"

	"polygraph/internal/domain"
)

// DefaultBatchSize bounds per-statement payload size for batched writes.
// Batch boundaries never change the resulting graph, only write granularity.
const DefaultBatchSize = 500

// Loader performs the ordered, idempotent load of events and trades.
type Loader struct {
	store     domain.GraphStore
	batchSize int
	logger    *slog.Logger
}

// NewLoader creates a Loader writing through the given store handle.
func NewLoader(store domain.GraphStore, batchSize int, logger *slog.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{
		store:     store,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Load writes the graph in dependency order: events, markets, outcomes,
// users, trades, then the derived SAME_GROUP links and holdings. Edges are
// never created before their endpoint nodes exist. Trades missing any join
// key are skipped and counted, not treated as errors.
func (l *Loader) Load(ctx context.Context, events []domain.Event, trades []domain.Trade) (domain.LoadCounts, error) {
	var counts domain.LoadCounts

	markets := flattenMarkets(events)
	outcomes := flattenOutcomes(markets)
	users := usersFromTrades(trades)
	valid, skipped := partitionTrades(trades)

	counts.Events = len(events)
	counts.Markets = len(markets)
	counts.Outcomes = len(outcomes)
	counts.Users = len(users)
	counts.Trades = len(valid)
	counts.SkippedTrades = skipped

	for _, batch := range chunk(events, l.batchSize) {
		if err := l.store.UpsertEvents(ctx, batch); err != nil {
			return counts, fmt.Errorf("loading events: %w", err)
		}
	}
	l.logger.Info("events loaded", slog.Int("count", counts.Events))

	for _, batch := range chunk(markets, l.batchSize) {
		if err := l.store.UpsertMarkets(ctx, batch); err != nil {
			return counts, fmt.Errorf("loading markets: %w", err)
		}
	}
	l.logger.Info("markets loaded", slog.Int("count", counts.Markets))

	for _, batch := range chunk(outcomes, l.batchSize) {
		if err := l.store.UpsertOutcomes(ctx, batch); err != nil {
			return counts, fmt.Errorf("loading outcomes: %w", err)
		}
	}
	l.logger.Info("outcomes loaded", slog.Int("count", counts.Outcomes))

	for _, batch := range chunk(users, l.batchSize) {
		if err := l.store.UpsertUsers(ctx, batch); err != nil {
			return counts, fmt.Errorf("loading users: %w", err)
		}
	}
	l.logger.Info("users loaded", slog.Int("count", counts.Users))

	for _, batch := range chunk(valid, l.batchSize) {
		if err := l.store.UpsertTrades(ctx, batch); err != nil {
			return counts, fmt.Errorf("loading trades: %w", err)
		}
	}
	l.logger.Info("trades loaded",
		slog.Int("count", counts.Trades),
		slog.Int("skipped", counts.SkippedTrades),
	)

	links, err := l.store.RebuildGroupLinks(ctx)
	if err != nil {
		return counts, fmt.Errorf("rebuilding group links: %w", err)
	}
	counts.GroupLinks = links

	holdings, err := l.store.RebuildHoldings(ctx)
	if err != nil {
		return counts, fmt.Errorf("rebuilding holdings: %w", err)
	}
	counts.Holdings = holdings

	l.logger.Info("derived relationships rebuilt",
		slog.Int64("group_links", counts.GroupLinks),
		slog.Int64("holdings", counts.Holdings),
	)

	return counts, nil
}

// flattenMarkets collects every market across the given events.
func flattenMarkets(events []domain.Event) []domain.Market {
	var markets []domain.Market
	for i := range events {
		markets = append(markets, events[i].Markets...)
	}
	return markets
}

// flattenOutcomes collects every outcome across the given markets.
func flattenOutcomes(markets []domain.Market) []domain.Outcome {
	var outcomes []domain.Outcome
	for i := range markets {
		outcomes = append(outcomes, markets[i].Outcomes...)
	}
	return outcomes
}

// usersFromTrades derives the user set from trades carrying a usable trader
// address, deduplicated by address. Profile fields take the first-seen
// value for each address.
func usersFromTrades(trades []domain.Trade) []domain.User {
	seen := make(map[string]struct{})
	var users []domain.User
	for i := range trades {
		addr := trades[i].TraderAddress
		if addr == "" || addr == domain.NullAddress {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		users = append(users, domain.User{
			Address:               addr,
			Role:                  "trader",
			Name:                  trades[i].UserName,
			Pseudonym:             trades[i].UserPseudonym,
			Bio:                   trades[i].UserBio,
			ProfileImage:          trades[i].UserProfileImage,
			ProfileImageOptimized: trades[i].UserProfileImageOptim,
		})
	}
	return users
}

// partitionTrades separates persistable trades from those missing a join
// key, returning the skip count.
func partitionTrades(trades []domain.Trade) ([]domain.Trade, int) {
	valid := make([]domain.Trade, 0, len(trades))
	skipped := 0
	for i := range trades {
		if !trades[i].HasJoinKeys() {
			skipped++
			continue
		}
		valid = append(valid, trades[i])
	}
	return valid, skipped
}

// chunk splits items into slices of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	var batches [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
