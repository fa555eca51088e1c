package pipeline

import (
	"context"
	"log/slog"
	"time"

	"polygraph/internal/domain"
	"polygraph/internal/platform/polymarket"
)

// TradeAPI retrieves one page of taker fills from the Data API.
type TradeAPI interface {
	GetTrades(ctx context.Context, limit, offset int, conditionIDs []string) ([]domain.Trade, error)
}

// TradeFetcher drives repeated bounded requests against the trade stream of
// one market, advancing the offset until a termination condition is hit.
type TradeFetcher struct {
	api      TradeAPI
	pageSize int
	pace     time.Duration
	logger   *slog.Logger
}

// NewTradeFetcher creates a TradeFetcher. pageSize is clamped to the
// upstream maximum; pace is the minimum delay between successive pages.
func NewTradeFetcher(api TradeAPI, pageSize int, pace time.Duration, logger *slog.Logger) *TradeFetcher {
	if pageSize <= 0 || pageSize > polymarket.DataAPIMaxPageSize {
		pageSize = polymarket.DataAPIMaxPageSize
	}
	return &TradeFetcher{
		api:      api,
		pageSize: pageSize,
		pace:     pace,
		logger:   logger,
	}
}

// Fetch accumulates trades for a single market condition id up to hardCap.
// Pages are fetched and appended in strict offset order.
//
// Termination conditions, checked in order on each page:
//  1. transport error or non-2xx status: return what has been accumulated
//     so far as a partial result, never an error;
//  2. empty page: natural end of data;
//  3. accumulated count >= hardCap: truncate to exactly hardCap;
//  4. page shorter than the requested page size: last page.
//
// The pacing delay runs between successful pages only and is skipped on the
// terminating page.
func (f *TradeFetcher) Fetch(ctx context.Context, conditionID string, hardCap int) []domain.Trade {
	var all []domain.Trade
	offset := 0

	for {
		page, err := f.api.GetTrades(ctx, f.pageSize, offset, []string{conditionID})
		if err != nil {
			f.logger.Warn("trade fetch truncated",
				slog.String("condition_id", conditionID),
				slog.Int("offset", offset),
				slog.Int("accumulated", len(all)),
				slog.String("error", err.Error()),
			)
			return all
		}

		if len(page) == 0 {
			return all
		}

		all = append(all, page...)

		if hardCap > 0 && len(all) >= hardCap {
			if len(all) > hardCap {
				all = all[:hardCap]
			}
			f.logger.Debug("trade fetch reached cap",
				slog.String("condition_id", conditionID),
				slog.Int("cap", hardCap),
			)
			return all
		}

		if len(page) < f.pageSize {
			return all
		}

		offset += len(page)

		if !f.sleep(ctx) {
			return all
		}
	}
}

// sleep waits for the pacing delay, honouring ctx. Returns false when the
// context was cancelled during the wait.
func (f *TradeFetcher) sleep(ctx context.Context) bool {
	if f.pace <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(f.pace)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
