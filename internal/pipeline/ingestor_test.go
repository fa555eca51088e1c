package pipeline

import (
	"context"
	"sync"
	"testing"

	"polygraph/internal/domain"
)

// multiKeyTradeAPI serves independent trade pools per condition id. Safe for
// concurrent use so parallel ingestion can run against it.
type multiKeyTradeAPI struct {
	mu    sync.Mutex
	pools map[string][]domain.Trade
	// fetchCounts tracks GetTrades calls per key, for retry assertions.
	fetchCounts map[string]int
}

func newMultiKeyTradeAPI(pools map[string][]domain.Trade) *multiKeyTradeAPI {
	return &multiKeyTradeAPI{pools: pools, fetchCounts: make(map[string]int)}
}

func (m *multiKeyTradeAPI) GetTrades(_ context.Context, limit, offset int, conditionIDs []string) ([]domain.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := conditionIDs[0]
	m.fetchCounts[key]++
	pool := m.pools[key]
	if offset >= len(pool) {
		return nil, nil
	}
	end := offset + limit
	if end > len(pool) {
		end = len(pool)
	}
	return pool[offset:end], nil
}

func TestIngestorPerMarketFairness(t *testing.T) {
	// The cap applies per key: a market with 5000 fills gets exactly the cap,
	// while a tiny market still contributes everything it has.
	api := newMultiKeyTradeAPI(map[string][]domain.Trade{
		"0xbig":   makeTrades(5000, "0xbig"),
		"0xsmall": makeTrades(10, "0xsmall"),
	})
	fetcher := NewTradeFetcher(api, 500, 0, testLogger())
	ing := NewIngestor(fetcher, 1, false, testLogger())

	trades, cov := ing.Run(context.Background(), []string{"0xbig", "0xsmall"}, 2000)

	perKey := map[string]int{}
	for _, tr := range trades {
		perKey[tr.ConditionID]++
	}
	if perKey["0xbig"] != 2000 {
		t.Errorf("big market contributed %d trades, want 2000", perKey["0xbig"])
	}
	if perKey["0xsmall"] != 10 {
		t.Errorf("small market contributed %d trades, want 10", perKey["0xsmall"])
	}

	if cov.Requested != 2 || cov.WithTrades != 2 || len(cov.Missing) != 0 {
		t.Errorf("coverage = %+v", cov)
	}
	if cov.Trades != len(trades) {
		t.Errorf("coverage trades = %d, len(trades) = %d", cov.Trades, len(trades))
	}
}

func TestIngestorReportsMissingKeys(t *testing.T) {
	api := newMultiKeyTradeAPI(map[string][]domain.Trade{
		"0x1": makeTrades(3, "0x1"),
		// 0x2 and 0x3 have no trades at all.
	})
	fetcher := NewTradeFetcher(api, 500, 0, testLogger())
	ing := NewIngestor(fetcher, 1, false, testLogger())

	_, cov := ing.Run(context.Background(), []string{"0x1", "0x2", "0x3"}, 100)

	if cov.WithTrades != 1 {
		t.Errorf("with trades = %d, want 1", cov.WithTrades)
	}
	if len(cov.Missing) != 2 || cov.Missing[0] != "0x2" || cov.Missing[1] != "0x3" {
		t.Errorf("missing = %v, want [0x2 0x3] in request order", cov.Missing)
	}

	// Without retryMissing, each key is fetched exactly once.
	if api.fetchCounts["0x2"] != 1 {
		t.Errorf("0x2 fetched %d times, want 1", api.fetchCounts["0x2"])
	}
}

func TestIngestorRetryMissingIsSinglePass(t *testing.T) {
	api := newMultiKeyTradeAPI(map[string][]domain.Trade{
		"0x1": makeTrades(3, "0x1"),
	})
	fetcher := NewTradeFetcher(api, 500, 0, testLogger())
	ing := NewIngestor(fetcher, 1, true, testLogger())

	_, cov := ing.Run(context.Background(), []string{"0x1", "0x2"}, 100)

	// The empty key is retried exactly once; the populated key is not.
	if api.fetchCounts["0x2"] != 2 {
		t.Errorf("0x2 fetched %d times, want 2", api.fetchCounts["0x2"])
	}
	if api.fetchCounts["0x1"] != 1 {
		t.Errorf("0x1 fetched %d times, want 1", api.fetchCounts["0x1"])
	}
	if len(cov.Missing) != 1 || cov.Missing[0] != "0x2" {
		t.Errorf("missing = %v", cov.Missing)
	}
}

func TestIngestorParallelWorkersCollectEverything(t *testing.T) {
	pools := map[string][]domain.Trade{
		"0x1": makeTrades(600, "0x1"),
		"0x2": makeTrades(300, "0x2"),
		"0x3": makeTrades(900, "0x3"),
		"0x4": makeTrades(50, "0x4"),
	}
	api := newMultiKeyTradeAPI(pools)
	fetcher := NewTradeFetcher(api, 500, 0, testLogger())
	ing := NewIngestor(fetcher, 3, false, testLogger())

	trades, cov := ing.Run(context.Background(), []string{"0x1", "0x2", "0x3", "0x4"}, 700)

	perKey := map[string]int{}
	for _, tr := range trades {
		perKey[tr.ConditionID]++
	}
	if perKey["0x1"] != 600 || perKey["0x2"] != 300 || perKey["0x3"] != 700 || perKey["0x4"] != 50 {
		t.Errorf("per-key counts = %v", perKey)
	}
	if cov.WithTrades != 4 || len(cov.Missing) != 0 {
		t.Errorf("coverage = %+v", cov)
	}
}
