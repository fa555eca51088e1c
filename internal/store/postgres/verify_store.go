package postgres

import (
	"context"
	"fmt"

	"polygraph/internal/domain"
)

// NodeCounts returns per-label node totals.
func (s *GraphStore) NodeCounts(ctx context.Context) (domain.NodeCounts, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM markets),
			(SELECT COUNT(*) FROM outcomes),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM trades)`

	var c domain.NodeCounts
	err := s.pool.QueryRow(ctx, query).Scan(
		&c.Events, &c.Markets, &c.Outcomes, &c.Users, &c.Trades,
	)
	if err != nil {
		return domain.NodeCounts{}, fmt.Errorf("postgres: node counts: %w", err)
	}
	return c, nil
}

// EdgeCounts returns the total per relationship type. Join-resolvable edges
// count only pairs whose endpoint rows both exist.
func (s *GraphStore) EdgeCounts(ctx context.Context) ([]domain.EdgeCount, error) {
	queries := []struct {
		name  string
		query string
	}{
		{"PART_OF_EVENT", `SELECT COUNT(*) FROM markets m JOIN events e ON e.slug = m.event_slug`},
		{"HAS_OUTCOME", `SELECT COUNT(*) FROM outcomes o JOIN markets m ON m.condition_id = o.condition_id`},
		{"PLACED_TRADE", `SELECT COUNT(*) FROM trades t JOIN users u ON u.address = t.trader_address`},
		{"ON_MARKET", `SELECT COUNT(*) FROM trades t JOIN markets m ON m.condition_id = t.condition_id`},
		{"FOR_OUTCOME", `SELECT COUNT(*) FROM trades t JOIN outcomes o
			ON o.condition_id = t.condition_id AND o.outcome_index = t.outcome_index`},
		{"SAME_GROUP", `SELECT COUNT(*) FROM market_groups`},
		{"HOLDS", `SELECT COUNT(*) FROM holdings`},
	}

	counts := make([]domain.EdgeCount, 0, len(queries))
	for _, q := range queries {
		var count int64
		if err := s.pool.QueryRow(ctx, q.query).Scan(&count); err != nil {
			return nil, fmt.Errorf("postgres: edge count %s: %w", q.name, err)
		}
		counts = append(counts, domain.EdgeCount{Type: q.name, Count: count})
	}
	return counts, nil
}

// IntegrityChecks runs the fixed set of referential predicates, each
// returning a violation count.
func (s *GraphStore) IntegrityChecks(ctx context.Context) ([]domain.IntegrityCheck, error) {
	queries := []struct {
		name  string
		query string
	}{
		{"Events without Markets", `
			SELECT COUNT(*) FROM events e
			WHERE NOT EXISTS (SELECT 1 FROM markets m WHERE m.event_slug = e.slug)`},
		{"Markets without Events", `
			SELECT COUNT(*) FROM markets m
			WHERE NOT EXISTS (SELECT 1 FROM events e WHERE e.slug = m.event_slug)`},
		{"Markets without Outcomes", `
			SELECT COUNT(*) FROM markets m
			WHERE NOT EXISTS (SELECT 1 FROM outcomes o WHERE o.condition_id = m.condition_id)`},
		{"Trades without Users", `
			SELECT COUNT(*) FROM trades t
			WHERE NOT EXISTS (SELECT 1 FROM users u WHERE u.address = t.trader_address)`},
		{"Trades without Markets", `
			SELECT COUNT(*) FROM trades t
			WHERE NOT EXISTS (SELECT 1 FROM markets m WHERE m.condition_id = t.condition_id)`},
		{"Trades without Outcomes", `
			SELECT COUNT(*) FROM trades t
			WHERE NOT EXISTS (
				SELECT 1 FROM outcomes o
				WHERE o.condition_id = t.condition_id AND o.outcome_index = t.outcome_index)`},
		{"Users without Trades", `
			SELECT COUNT(*) FROM users u
			WHERE u.role = 'trader'
			AND NOT EXISTS (SELECT 1 FROM trades t WHERE t.trader_address = u.address)`},
	}

	checks := make([]domain.IntegrityCheck, 0, len(queries))
	for _, q := range queries {
		var count int64
		if err := s.pool.QueryRow(ctx, q.query).Scan(&count); err != nil {
			return nil, fmt.Errorf("postgres: integrity check %q: %w", q.name, err)
		}
		checks = append(checks, domain.IntegrityCheck{Name: q.name, Violations: count})
	}
	return checks, nil
}

// ResolutionStats summarizes market lifecycle state.
func (s *GraphStore) ResolutionStats(ctx context.Context) (domain.ResolutionStats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE resolved),
			COUNT(*) FILTER (WHERE closed),
			COUNT(*) FILTER (WHERE active)
		FROM markets`

	var st domain.ResolutionStats
	err := s.pool.QueryRow(ctx, query).Scan(&st.Total, &st.Resolved, &st.Closed, &st.Active)
	if err != nil {
		return domain.ResolutionStats{}, fmt.Errorf("postgres: resolution stats: %w", err)
	}
	return st, nil
}

// VolumeStats summarizes trade volume and the BUY/SELL split.
func (s *GraphStore) VolumeStats(ctx context.Context) (domain.VolumeStats, error) {
	const query = `
		SELECT
			COUNT(*),
			COALESCE(SUM(size_usdc), 0),
			COALESCE(AVG(size_usdc), 0),
			COALESCE(MIN(size_usdc), 0),
			COALESCE(MAX(size_usdc), 0),
			COUNT(*) FILTER (WHERE side = 'BUY'),
			COALESCE(SUM(size_usdc) FILTER (WHERE side = 'BUY'), 0),
			COUNT(*) FILTER (WHERE side = 'SELL'),
			COALESCE(SUM(size_usdc) FILTER (WHERE side = 'SELL'), 0)
		FROM trades`

	var st domain.VolumeStats
	err := s.pool.QueryRow(ctx, query).Scan(
		&st.TradeCount, &st.TotalVolume, &st.AvgTradeSize, &st.MinTrade, &st.MaxTrade,
		&st.BuyCount, &st.BuyVolume, &st.SellCount, &st.SellVolume,
	)
	if err != nil {
		return domain.VolumeStats{}, fmt.Errorf("postgres: volume stats: %w", err)
	}
	return st, nil
}

// TopTraders ranks users by total traded volume.
func (s *GraphStore) TopTraders(ctx context.Context, n int) ([]domain.TraderRank, error) {
	const query = `
		SELECT t.trader_address, SUM(t.size_usdc), COUNT(*)
		FROM trades t
		GROUP BY t.trader_address
		ORDER BY SUM(t.size_usdc) DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("postgres: top traders: %w", err)
	}
	defer rows.Close()

	var ranks []domain.TraderRank
	for rows.Next() {
		var r domain.TraderRank
		if err := rows.Scan(&r.Address, &r.Volume, &r.TradeCount); err != nil {
			return nil, fmt.Errorf("postgres: scan top trader: %w", err)
		}
		ranks = append(ranks, r)
	}
	return ranks, rows.Err()
}

// TopMarkets ranks markets by listed volume.
func (s *GraphStore) TopMarkets(ctx context.Context, n int) ([]domain.MarketRank, error) {
	const query = `
		SELECT question, slug, volume
		FROM markets
		ORDER BY volume DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("postgres: top markets: %w", err)
	}
	defer rows.Close()

	var ranks []domain.MarketRank
	for rows.Next() {
		var r domain.MarketRank
		if err := rows.Scan(&r.Question, &r.Slug, &r.Volume); err != nil {
			return nil, fmt.Errorf("postgres: scan top market: %w", err)
		}
		ranks = append(ranks, r)
	}
	return ranks, rows.Err()
}

// TopEvents ranks events by listed volume.
func (s *GraphStore) TopEvents(ctx context.Context, n int) ([]domain.EventRank, error) {
	const query = `
		SELECT title, category, volume
		FROM events
		ORDER BY volume DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("postgres: top events: %w", err)
	}
	defer rows.Close()

	var ranks []domain.EventRank
	for rows.Next() {
		var r domain.EventRank
		if err := rows.Scan(&r.Title, &r.Category, &r.Volume); err != nil {
			return nil, fmt.Errorf("postgres: scan top event: %w", err)
		}
		ranks = append(ranks, r)
	}
	return ranks, rows.Err()
}
