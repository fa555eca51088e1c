package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"polygraph/internal/domain"
)

func testTime(offsetHours int) time.Time {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(offsetHours) * time.Hour)
}

func seedGraph(t *testing.T, store *GraphStore) {
	t.Helper()
	ctx := context.Background()

	events := []domain.Event{
		{
			Slug:      "election-night",
			Title:     "Election Night",
			Category:  "Politics",
			StartDate: testTime(0),
			EndDate:   testTime(48),
			Closed:    true,
			Volume:    50000,
			Tags:      []string{"Politics", "Elections"},
		},
	}
	require.NoError(t, store.UpsertEvents(ctx, events))

	markets := []domain.Market{
		{
			ConditionID:         "0xm1",
			Question:            "Will A win?",
			Slug:                "will-a-win",
			StartDate:           testTime(0),
			EndDate:             testTime(48),
			ClosedTime:          testTime(48),
			Closed:              true,
			Resolved:            true,
			WinningOutcome:      ptr("Yes"),
			UMAResolutionStatus: "resolved",
			Volume:              30000,
			NegRiskMarketID:     ptr("0xgroup1"),
			EventSlug:           "election-night",
		},
		{
			ConditionID:     "0xm2",
			Question:        "Will B win?",
			Slug:            "will-b-win",
			StartDate:       testTime(0),
			EndDate:         testTime(48),
			ClosedTime:      testTime(48),
			Closed:          true,
			Volume:          20000,
			NegRiskMarketID: ptr("0xgroup1"),
			EventSlug:       "election-night",
		},
	}
	require.NoError(t, store.UpsertMarkets(ctx, markets))

	outcomes := []domain.Outcome{
		{ConditionID: "0xm1", Index: 0, Name: "Yes", Price: 1, TokenID: "t1"},
		{ConditionID: "0xm1", Index: 1, Name: "No", Price: 0, TokenID: "t2"},
		{ConditionID: "0xm2", Index: 0, Name: "Yes", Price: 0.3, TokenID: "t3"},
		{ConditionID: "0xm2", Index: 1, Name: "No", Price: 0.7, TokenID: "t4"},
	}
	require.NoError(t, store.UpsertOutcomes(ctx, outcomes))

	users := []domain.User{
		{Address: "0xalice", Role: "trader", Name: "alice"},
		{Address: "0xbob", Role: "trader", Name: "bob"},
	}
	require.NoError(t, store.UpsertUsers(ctx, users))

	trades := []domain.Trade{
		{
			TransactionHash: "0xt1", Timestamp: testTime(1), Side: domain.TradeSideBuy,
			SizeUSDC: 10, Price: 0.5, OutcomeName: "Yes", OutcomeIndex: 0,
			ConditionID: "0xm1", MarketSlug: "will-a-win", MarketTitle: "Will A win?",
			MarketIcon: "https://cdn.example/will-a-win.png",
			EventSlug:  "election-night", TraderAddress: "0xalice",
		},
		{
			TransactionHash: "0xt2", Timestamp: testTime(2), Side: domain.TradeSideBuy,
			SizeUSDC: 15, Price: 0.6, OutcomeName: "Yes", OutcomeIndex: 0,
			ConditionID: "0xm1", EventSlug: "election-night", TraderAddress: "0xalice",
		},
		{
			TransactionHash: "0xt3", Timestamp: testTime(3), Side: domain.TradeSideSell,
			SizeUSDC: 5, Price: 0.7, OutcomeName: "Yes", OutcomeIndex: 0,
			ConditionID: "0xm1", EventSlug: "election-night", TraderAddress: "0xalice",
		},
		{
			TransactionHash: "0xt4", Timestamp: testTime(4), Side: domain.TradeSideBuy,
			SizeUSDC: 100, Price: 0.3, OutcomeName: "No", OutcomeIndex: 1,
			ConditionID: "0xm2", EventSlug: "election-night", TraderAddress: "0xbob",
		},
	}
	require.NoError(t, store.UpsertTrades(ctx, trades))
}

func TestGraphStoreRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedGraph(t, store)

	nodes, err := store.NodeCounts(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, nodes.Events)
	require.EqualValues(t, 2, nodes.Markets)
	require.EqualValues(t, 4, nodes.Outcomes)
	require.EqualValues(t, 2, nodes.Users)
	require.EqualValues(t, 4, nodes.Trades)

	// Denormalized market display fields survive the trade upsert.
	var icon string
	err = store.pool.QueryRow(ctx,
		"SELECT market_icon FROM trades WHERE transaction_hash = '0xt1'",
	).Scan(&icon)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example/will-a-win.png", icon)

	// Loading the same data again must not change any count.
	seedGraph(t, store)
	nodes, err = store.NodeCounts(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, nodes.Events)
	require.EqualValues(t, 4, nodes.Trades)
}

func TestRebuildGroupLinks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedGraph(t, store)

	// Two markets in one neg-risk group yields both directions.
	count, err := store.RebuildGroupLinks(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	// Rebuilding is stable.
	count, err = store.RebuildGroupLinks(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	// Moving a market out of the group drops its stale links on the next
	// rebuild rather than accumulating them.
	regrouped := []domain.Market{{
		ConditionID:     "0xm2",
		Question:        "Will B win?",
		Slug:            "will-b-win",
		StartDate:       testTime(0),
		EndDate:         testTime(48),
		ClosedTime:      testTime(48),
		Closed:          true,
		Volume:          20000,
		NegRiskMarketID: ptr("0xgroup2"),
		EventSlug:       "election-night",
	}}
	require.NoError(t, store.UpsertMarkets(ctx, regrouped))

	count, err = store.RebuildGroupLinks(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}

func TestRebuildHoldingsAggregatesBuysOnly(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedGraph(t, store)

	count, err := store.RebuildHoldings(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	// Alice: two BUYs of 10 and 15 on (0xm1, 0); the SELL is excluded and the
	// last_updated is the later BUY timestamp.
	holdings, err := store.UserHoldings(ctx, "0xalice")
	require.NoError(t, err)
	require.Len(t, holdings, 1)

	h := holdings[0]
	require.Equal(t, "0xm1", h.ConditionID)
	require.Equal(t, 0, h.OutcomeIndex)
	require.InDelta(t, 25, h.InvestedUSDC, 1e-9)
	require.True(t, h.LastUpdated.Equal(testTime(2)), "last_updated = %v", h.LastUpdated)

	// The rebuild is a full recompute, not an accumulation.
	count, err = store.RebuildHoldings(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestVerifyQueries(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedGraph(t, store)

	// Add a dangling trade so one integrity check fires.
	require.NoError(t, store.UpsertTrades(ctx, []domain.Trade{{
		TransactionHash: "0xorphan", Timestamp: testTime(5), Side: domain.TradeSideBuy,
		SizeUSDC: 1, ConditionID: "0xmissing", TraderAddress: "0xalice",
	}}))

	edges, err := store.EdgeCounts(ctx)
	require.NoError(t, err)
	byType := map[string]int64{}
	for _, e := range edges {
		byType[e.Type] = e.Count
	}
	require.EqualValues(t, 2, byType["PART_OF_EVENT"])
	require.EqualValues(t, 4, byType["HAS_OUTCOME"])
	require.EqualValues(t, 5, byType["PLACED_TRADE"])
	// The orphan trade resolves no market or outcome.
	require.EqualValues(t, 4, byType["ON_MARKET"])
	require.EqualValues(t, 4, byType["FOR_OUTCOME"])

	checks, err := store.IntegrityChecks(ctx)
	require.NoError(t, err)
	violations := map[string]int64{}
	for _, c := range checks {
		violations[c.Name] = c.Violations
	}
	require.EqualValues(t, 1, violations["Trades without Markets"])
	require.EqualValues(t, 1, violations["Trades without Outcomes"])
	require.EqualValues(t, 0, violations["Trades without Users"])

	res, err := store.ResolutionStats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, res.Total)
	require.EqualValues(t, 1, res.Resolved)
	require.EqualValues(t, 2, res.Closed)

	vol, err := store.VolumeStats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 5, vol.TradeCount)
	require.InDelta(t, 131, vol.TotalVolume, 1e-9)
	require.EqualValues(t, 4, vol.BuyCount)
	require.InDelta(t, 126, vol.BuyVolume, 1e-9)
	require.EqualValues(t, 1, vol.SellCount)

	traders, err := store.TopTraders(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, traders)
	require.Equal(t, "0xbob", traders[0].Address)
	require.InDelta(t, 100, traders[0].Volume, 1e-9)

	markets, err := store.TopMarkets(ctx, 1)
	require.NoError(t, err)
	require.Len(t, markets, 1)
	require.Equal(t, "will-a-win", markets[0].Slug)

	events, err := store.TopEvents(ctx, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "Politics", events[0].Category)
}

func TestReset(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedGraph(t, store)
	_, err := store.RebuildGroupLinks(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Reset(ctx))

	nodes, err := store.NodeCounts(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, nodes.Events+nodes.Markets+nodes.Outcomes+nodes.Users+nodes.Trades)
}
