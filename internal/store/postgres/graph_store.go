package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"polygraph/internal/domain"
)

// GraphStore implements domain.GraphStore and domain.GraphReader using
// PostgreSQL. Every write is an INSERT ... ON CONFLICT merge on the entity's
// unique key, so repeated loads of the same batch are idempotent.
type GraphStore struct {
	pool *pgxpool.Pool
}

// NewGraphStore creates a GraphStore backed by the given connection pool.
func NewGraphStore(pool *pgxpool.Pool) *GraphStore {
	return &GraphStore{pool: pool}
}

// UpsertEvents merges events by slug.
func (s *GraphStore) UpsertEvents(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO events (
			slug, title, description, category, start_date, end_date,
			closed, volume, liquidity, open_interest, icon, image,
			comment_count, tags, restricted, featured, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, NOW()
		)
		ON CONFLICT (slug) DO UPDATE SET
			title         = EXCLUDED.title,
			description   = EXCLUDED.description,
			category      = EXCLUDED.category,
			start_date    = EXCLUDED.start_date,
			end_date      = EXCLUDED.end_date,
			closed        = EXCLUDED.closed,
			volume        = EXCLUDED.volume,
			liquidity     = EXCLUDED.liquidity,
			open_interest = EXCLUDED.open_interest,
			icon          = EXCLUDED.icon,
			image         = EXCLUDED.image,
			comment_count = EXCLUDED.comment_count,
			tags          = EXCLUDED.tags,
			restricted    = EXCLUDED.restricted,
			featured      = EXCLUDED.featured,
			updated_at    = NOW()`

	for _, e := range events {
		tags := e.Tags
		if tags == nil {
			tags = []string{}
		}
		batch.Queue(query,
			e.Slug, e.Title, e.Description, e.Category, e.StartDate, e.EndDate,
			e.Closed, e.Volume, e.Liquidity, e.OpenInterest, e.Icon, e.Image,
			e.CommentCount, tags, e.Restricted, e.Featured,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range events {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert event batch item %d: %w", i, err)
		}
	}
	return nil
}

// UpsertMarkets merges markets by condition id.
func (s *GraphStore) UpsertMarkets(ctx context.Context, markets []domain.Market) error {
	if len(markets) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO markets (
			condition_id, question, slug, description, question_id,
			start_date, end_date, closed, closed_time, resolved,
			winning_outcome, resolved_by, uma_resolution_status,
			volume, volume_clob, liquidity, last_trade_price,
			best_ask, best_bid, spread, neg_risk, neg_risk_market_id,
			group_item_title, restricted, active, event_slug, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13,
			$14, $15, $16, $17,
			$18, $19, $20, $21, $22,
			$23, $24, $25, $26, NOW()
		)
		ON CONFLICT (condition_id) DO UPDATE SET
			question              = EXCLUDED.question,
			slug                  = EXCLUDED.slug,
			description           = EXCLUDED.description,
			question_id           = EXCLUDED.question_id,
			start_date            = EXCLUDED.start_date,
			end_date              = EXCLUDED.end_date,
			closed                = EXCLUDED.closed,
			closed_time           = EXCLUDED.closed_time,
			resolved              = EXCLUDED.resolved,
			winning_outcome       = EXCLUDED.winning_outcome,
			resolved_by           = EXCLUDED.resolved_by,
			uma_resolution_status = EXCLUDED.uma_resolution_status,
			volume                = EXCLUDED.volume,
			volume_clob           = EXCLUDED.volume_clob,
			liquidity             = EXCLUDED.liquidity,
			last_trade_price      = EXCLUDED.last_trade_price,
			best_ask              = EXCLUDED.best_ask,
			best_bid              = EXCLUDED.best_bid,
			spread                = EXCLUDED.spread,
			neg_risk              = EXCLUDED.neg_risk,
			neg_risk_market_id    = EXCLUDED.neg_risk_market_id,
			group_item_title      = EXCLUDED.group_item_title,
			restricted            = EXCLUDED.restricted,
			active                = EXCLUDED.active,
			event_slug            = EXCLUDED.event_slug,
			updated_at            = NOW()`

	for _, m := range markets {
		batch.Queue(query,
			m.ConditionID, m.Question, m.Slug, m.Description, m.QuestionID,
			m.StartDate, m.EndDate, m.Closed, m.ClosedTime, m.Resolved,
			m.WinningOutcome, m.ResolvedBy, m.UMAResolutionStatus,
			m.Volume, m.VolumeClob, m.Liquidity, m.LastTradePrice,
			m.BestAsk, m.BestBid, m.Spread, m.NegRisk, m.NegRiskMarketID,
			m.GroupItemTitle, m.Restricted, m.Active, m.EventSlug,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range markets {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert market batch item %d: %w", i, err)
		}
	}
	return nil
}

// UpsertOutcomes merges outcomes by their (condition_id, outcome_index)
// composite key.
func (s *GraphStore) UpsertOutcomes(ctx context.Context, outcomes []domain.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO outcomes (
			condition_id, outcome_index, outcome_name, current_price, token_id
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (condition_id, outcome_index) DO UPDATE SET
			outcome_name  = EXCLUDED.outcome_name,
			current_price = EXCLUDED.current_price,
			token_id      = EXCLUDED.token_id`

	for _, o := range outcomes {
		batch.Queue(query, o.ConditionID, o.Index, o.Name, o.Price, o.TokenID)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range outcomes {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert outcome batch item %d: %w", i, err)
		}
	}
	return nil
}

// UpsertUsers merges users by address.
func (s *GraphStore) UpsertUsers(ctx context.Context, users []domain.User) error {
	if len(users) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO users (
			address, role, name, pseudonym, bio,
			profile_image, profile_image_optimized
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (address) DO UPDATE SET
			role                    = EXCLUDED.role,
			name                    = EXCLUDED.name,
			pseudonym               = EXCLUDED.pseudonym,
			bio                     = EXCLUDED.bio,
			profile_image           = EXCLUDED.profile_image,
			profile_image_optimized = EXCLUDED.profile_image_optimized`

	for _, u := range users {
		batch.Queue(query,
			u.Address, u.Role, u.Name, u.Pseudonym, u.Bio,
			u.ProfileImage, u.ProfileImageOptimized,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range users {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert user batch item %d: %w", i, err)
		}
	}
	return nil
}

// UpsertTrades merges trades by transaction hash.
func (s *GraphStore) UpsertTrades(ctx context.Context, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO trades (
			transaction_hash, timestamp, side, size_usdc, price,
			outcome_name, outcome_index, asset, condition_id,
			market_slug, market_title, market_icon, event_slug, trader_address
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $14
		)
		ON CONFLICT (transaction_hash) DO UPDATE SET
			timestamp      = EXCLUDED.timestamp,
			side           = EXCLUDED.side,
			size_usdc      = EXCLUDED.size_usdc,
			price          = EXCLUDED.price,
			outcome_name   = EXCLUDED.outcome_name,
			outcome_index  = EXCLUDED.outcome_index,
			asset          = EXCLUDED.asset,
			condition_id   = EXCLUDED.condition_id,
			market_slug    = EXCLUDED.market_slug,
			market_title   = EXCLUDED.market_title,
			market_icon    = EXCLUDED.market_icon,
			event_slug     = EXCLUDED.event_slug,
			trader_address = EXCLUDED.trader_address`

	for _, t := range trades {
		batch.Queue(query,
			t.TransactionHash, t.Timestamp, t.Side, t.SizeUSDC, t.Price,
			t.OutcomeName, t.OutcomeIndex, t.Asset, t.ConditionID,
			t.MarketSlug, t.MarketTitle, t.MarketIcon, t.EventSlug, t.TraderAddress,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range trades {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert trade batch item %d: %w", i, err)
		}
	}
	return nil
}

// RebuildGroupLinks derives SAME_GROUP links from markets sharing a
// non-null neg-risk group id. The self-join emits both directions, so the
// edge set is symmetric by construction. Like the holdings rebuild, the
// table is replaced wholesale inside one transaction so links from a prior
// group assignment do not linger.
func (s *GraphStore) RebuildGroupLinks(ctx context.Context) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin group links rebuild: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM market_groups"); err != nil {
		return 0, fmt.Errorf("postgres: clear group links: %w", err)
	}

	const query = `
		INSERT INTO market_groups (condition_id, peer_condition_id, group_id)
		SELECT m1.condition_id, m2.condition_id, m1.neg_risk_market_id
		FROM markets m1
		JOIN markets m2
			ON m1.neg_risk_market_id = m2.neg_risk_market_id
			AND m1.condition_id <> m2.condition_id
		WHERE m1.neg_risk_market_id IS NOT NULL`

	tag, err := tx.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("postgres: rebuild group links: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit group links rebuild: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RebuildHoldings recomputes the holdings table from all persisted BUY
// trades whose outcome resolves, grouped by (user, outcome). The recompute
// replaces the table wholesale inside one transaction so a holding whose
// underlying trades vanished does not linger.
func (s *GraphStore) RebuildHoldings(ctx context.Context) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin holdings rebuild: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM holdings"); err != nil {
		return 0, fmt.Errorf("postgres: clear holdings: %w", err)
	}

	const query = `
		INSERT INTO holdings (
			user_address, condition_id, outcome_index, invested_usdc, last_updated
		)
		SELECT t.trader_address, t.condition_id, t.outcome_index,
			SUM(t.size_usdc), MAX(t.timestamp)
		FROM trades t
		JOIN outcomes o
			ON o.condition_id = t.condition_id
			AND o.outcome_index = t.outcome_index
		WHERE t.side = 'BUY'
		GROUP BY t.trader_address, t.condition_id, t.outcome_index`

	tag, err := tx.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("postgres: rebuild holdings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit holdings rebuild: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UserHoldings returns the derived holdings of one trader, largest position
// first.
func (s *GraphStore) UserHoldings(ctx context.Context, address string) ([]domain.Holding, error) {
	const query = `
		SELECT user_address, condition_id, outcome_index, invested_usdc, last_updated
		FROM holdings
		WHERE user_address = $1
		ORDER BY invested_usdc DESC`

	rows, err := s.pool.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("postgres: user holdings: %w", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		var h domain.Holding
		if err := rows.Scan(&h.UserAddress, &h.ConditionID, &h.OutcomeIndex, &h.InvestedUSDC, &h.LastUpdated); err != nil {
			return nil, fmt.Errorf("postgres: scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// Reset wipes all graph data. Used only when the pipeline explicitly opts
// in to a clean rebuild; upserts make re-runs idempotent without it.
func (s *GraphStore) Reset(ctx context.Context) error {
	const query = `TRUNCATE events, markets, outcomes, users, trades, market_groups, holdings`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("postgres: reset graph: %w", err)
	}
	return nil
}

// Compile-time interface checks.
var (
	_ domain.GraphStore  = (*GraphStore)(nil)
	_ domain.GraphReader = (*GraphStore)(nil)
)
