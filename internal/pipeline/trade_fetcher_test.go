package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"polygraph/internal/domain"
)

// pagedTradeAPI serves a fixed pool of trades for one condition id, slicing
// pages by offset the way the Data API does.
type pagedTradeAPI struct {
	pool  []domain.Trade
	calls int
	// failAt, when > 0, errors the Nth call (1-based).
	failAt int
}

func (p *pagedTradeAPI) GetTrades(_ context.Context, limit, offset int, conditionIDs []string) ([]domain.Trade, error) {
	p.calls++
	if p.failAt > 0 && p.calls == p.failAt {
		return nil, errors.New("upstream unavailable")
	}
	if offset >= len(p.pool) {
		return nil, nil
	}
	end := offset + limit
	if end > len(p.pool) {
		end = len(p.pool)
	}
	return p.pool[offset:end], nil
}

func makeTrades(n int, cid string) []domain.Trade {
	trades := make([]domain.Trade, n)
	for i := range trades {
		trades[i] = domain.Trade{
			TransactionHash: fmt.Sprintf("0xtx-%s-%d", cid, i),
			ConditionID:     cid,
			TraderAddress:   "0xtrader",
		}
	}
	return trades
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchHardCapExactTruncation(t *testing.T) {
	// 2500 available, cap 2000, pages of 500: exactly 4 full pages plus the
	// capped fifth, truncated to the cap.
	api := &pagedTradeAPI{pool: makeTrades(2500, "0x1")}
	f := NewTradeFetcher(api, 500, 0, testLogger())

	got := f.Fetch(context.Background(), "0x1", 2000)
	if len(got) != 2000 {
		t.Fatalf("fetched %d trades, want 2000", len(got))
	}
	if api.calls != 4 {
		t.Errorf("api calls = %d, want 4", api.calls)
	}
	// Offset order preserved.
	if got[0].TransactionHash != "0xtx-0x1-0" || got[1999].TransactionHash != "0xtx-0x1-1999" {
		t.Errorf("page ordering broken: first=%s last=%s", got[0].TransactionHash, got[1999].TransactionHash)
	}
}

func TestFetchShortPageTerminates(t *testing.T) {
	api := &pagedTradeAPI{pool: makeTrades(742, "0x1")}
	f := NewTradeFetcher(api, 500, 0, testLogger())

	got := f.Fetch(context.Background(), "0x1", 2000)
	if len(got) != 742 {
		t.Fatalf("fetched %d trades, want 742", len(got))
	}
	// Full page + short page, no probe after the short one.
	if api.calls != 2 {
		t.Errorf("api calls = %d, want 2", api.calls)
	}
}

func TestFetchEmptyFirstPage(t *testing.T) {
	api := &pagedTradeAPI{}
	f := NewTradeFetcher(api, 500, 0, testLogger())

	got := f.Fetch(context.Background(), "0x1", 2000)
	if len(got) != 0 {
		t.Fatalf("fetched %d trades, want 0", len(got))
	}
}

func TestFetchErrorReturnsPartial(t *testing.T) {
	api := &pagedTradeAPI{pool: makeTrades(1500, "0x1"), failAt: 3}
	f := NewTradeFetcher(api, 500, 0, testLogger())

	got := f.Fetch(context.Background(), "0x1", 5000)
	if len(got) != 1000 {
		t.Fatalf("fetched %d trades, want the 1000 accumulated before the failure", len(got))
	}
}

func TestFetchCancelledContextStopsPaging(t *testing.T) {
	api := &pagedTradeAPI{pool: makeTrades(5000, "0x1")}
	f := NewTradeFetcher(api, 500, 0, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := f.Fetch(ctx, "0x1", 5000)
	// The first page may land before cancellation is observed; paging must
	// not continue past it.
	if api.calls > 1 {
		t.Errorf("api calls = %d after cancellation, want at most 1", api.calls)
	}
	if len(got) > 500 {
		t.Errorf("fetched %d trades after cancellation", len(got))
	}
}

func TestNewTradeFetcherClampsPageSize(t *testing.T) {
	api := &pagedTradeAPI{pool: makeTrades(600, "0x1")}
	f := NewTradeFetcher(api, 10_000, 0, testLogger())

	got := f.Fetch(context.Background(), "0x1", 0)
	if len(got) != 600 {
		t.Fatalf("fetched %d trades, want 600", len(got))
	}
	if api.calls != 2 {
		t.Errorf("api calls = %d, want 2 pages at the clamped size", api.calls)
	}

	for _, tr := range got {
		if !strings.HasPrefix(tr.TransactionHash, "0xtx-0x1-") {
			t.Fatalf("unexpected trade %q", tr.TransactionHash)
		}
	}
}
