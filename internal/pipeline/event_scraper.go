package pipeline

import (
	"context"
	"log/slog"

	"polygraph/internal/domain"
	"polygraph/internal/platform/polymarket"
)

// EventAPI retrieves one page of the Gamma event listing.
type EventAPI interface {
	ListEvents(ctx context.Context, limit, offset int, includeClosed bool) ([]polymarket.APIEvent, error)
}

// EventScraper pages through the Gamma event listing and normalizes each
// event into its domain form, markets and outcomes included. Closed events
// are fetched too, since trade history is largely historical.
type EventScraper struct {
	api      EventAPI
	pageSize int
	logger   *slog.Logger
}

// NewEventScraper creates a new EventScraper.
func NewEventScraper(api EventAPI, pageSize int, logger *slog.Logger) *EventScraper {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &EventScraper{
		api:      api,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Run fetches up to maxEvents events and returns them normalized. Listing
// failures follow the same policy as the trade fetch: log a warning and
// return whatever accumulated, possibly nothing, so the run can still
// complete and report.
func (s *EventScraper) Run(ctx context.Context, maxEvents int) []domain.Event {
	var events []domain.Event
	offset := 0

	for {
		if ctx.Err() != nil {
			return events
		}

		limit := s.pageSize
		if maxEvents > 0 && maxEvents-len(events) < limit {
			limit = maxEvents - len(events)
		}

		page, err := s.api.ListEvents(ctx, limit, offset, true)
		if err != nil {
			s.logger.Warn("event listing truncated",
				slog.Int("offset", offset),
				slog.Int("accumulated", len(events)),
				slog.String("error", err.Error()),
			)
			return events
		}

		if len(page) == 0 {
			break
		}

		for i := range page {
			events = append(events, page[i].ToDomainEvent())
		}

		s.logger.Info("synced event batch",
			slog.Int("batch_size", len(page)),
			slog.Int("total_synced", len(events)),
			slog.Int("offset", offset),
		)

		if len(page) < limit {
			break
		}
		if maxEvents > 0 && len(events) >= maxEvents {
			events = events[:maxEvents]
			break
		}

		offset += len(page)
	}

	s.logger.Info("event scrape complete", slog.Int("total_synced", len(events)))
	return events
}

// ConditionIDs collects the unique market condition ids across the given
// events, in first-seen order.
func ConditionIDs(events []domain.Event) []string {
	seen := make(map[string]struct{})
	var ids []string
	for i := range events {
		for j := range events[i].Markets {
			cid := events[i].Markets[j].ConditionID
			if cid == "" {
				continue
			}
			if _, ok := seen[cid]; ok {
				continue
			}
			seen[cid] = struct{}{}
			ids = append(ids, cid)
		}
	}
	return ids
}
