package polymarket

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"polygraph/internal/domain"
)

// categoryPriority is the fixed tag ordering used when an event carries no
// explicit category. The order is a deliberate tie-break.
var categoryPriority = []string{"Sports", "Politics", "Finance", "Crypto", "Science", "Entertainment"}

// tagStoplist holds generic tags that never qualify as a category.
var tagStoplist = map[string]struct{}{
	"All":           {},
	"Hide From New": {},
	"Daily":         {},
	"Recurring":     {},
}

// Sentinel timestamps substituted when a source date fails to parse.
var (
	startSentinel = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	endSentinel   = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
)

// winningPriceThreshold is the minimum outcome price treated as a confirmed
// win on a resolved market.
const winningPriceThreshold = 0.99

// CategoryForEvent resolves an event's category. An explicit category field
// wins; otherwise the first tag matching the priority list, then the first
// tag not in the stoplist, then "Unknown".
func CategoryForEvent(e *APIEvent) string {
	if e.Category != "" {
		return e.Category
	}
	for _, want := range categoryPriority {
		for _, tag := range e.Tags {
			if tag.Label == want {
				return want
			}
		}
	}
	for _, tag := range e.Tags {
		if tag.Label == "" {
			continue
		}
		if _, stopped := tagStoplist[tag.Label]; !stopped {
			return tag.Label
		}
	}
	return "Unknown"
}

// ExtractOutcomes builds the outcome list for a market from its three
// parallel arrays, iterating by name index. A missing price defaults to
// 0.5; a missing token id synthesizes a deterministic placeholder carrying
// the market's condition id and the index.
func ExtractOutcomes(m *APIMarket) []domain.Outcome {
	names := []string(m.Outcomes)
	prices := []string(m.OutcomePrices)
	tokenIDs := []string(m.ClobTokenIDs)

	outcomes := make([]domain.Outcome, 0, len(names))
	for i, name := range names {
		price := 0.5
		if i < len(prices) {
			if p, err := strconv.ParseFloat(prices[i], 64); err == nil {
				price = p
			}
		}
		tokenID := fmt.Sprintf("unknown_%s_%d", m.ConditionID, i)
		if i < len(tokenIDs) && tokenIDs[i] != "" {
			tokenID = tokenIDs[i]
		}
		outcomes = append(outcomes, domain.Outcome{
			ConditionID: m.ConditionID,
			Index:       i,
			Name:        name,
			Price:       price,
			TokenID:     tokenID,
		})
	}
	return outcomes
}

// WinningOutcome returns the name of the winning outcome for a resolved
// market: the first index, in array order, whose price is at least the
// winning threshold. Returns nil for unresolved markets, when no price
// qualifies, or when any price fails to parse; a single malformed price
// voids the whole determination rather than letting a later index win.
func WinningOutcome(m *APIMarket) *string {
	if m.UMAResolutionStatus != "resolved" {
		return nil
	}
	names := []string(m.Outcomes)
	for i, raw := range []string(m.OutcomePrices) {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		if price < winningPriceThreshold {
			continue
		}
		if i < len(names) {
			name := names[i]
			return &name
		}
		return nil
	}
	return nil
}

// parseTimestamp accepts the date formats the Gamma API actually emits:
// RFC3339 and the "2006-01-02 15:04:05+00" shorthand (space separator,
// truncated offset). Failure substitutes the given sentinel.
func parseTimestamp(s string, sentinel time.Time) time.Time {
	if s == "" {
		return sentinel
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	normalized := strings.Replace(s, " ", "T", 1)
	if strings.HasSuffix(normalized, "+00") {
		normalized = strings.TrimSuffix(normalized, "+00") + "Z"
	}
	if t, err := time.Parse(time.RFC3339, normalized); err == nil {
		return t.UTC()
	}
	return sentinel
}

// ToDomainMarket converts a Gamma market into its domain form, deriving
// resolution state, outcomes, and the event link. Malformed fields degrade
// to defaults; the record itself is never dropped.
func (m *APIMarket) ToDomainMarket(eventSlug string) domain.Market {
	dm := domain.Market{
		ConditionID:         m.ConditionID,
		Question:            m.Question,
		Slug:                m.Slug,
		Description:         m.Description,
		QuestionID:          m.QuestionID,
		StartDate:           parseTimestamp(m.StartDate, startSentinel),
		EndDate:             parseTimestamp(m.EndDate, endSentinel),
		Closed:              m.Closed,
		ClosedTime:          parseTimestamp(m.ClosedTime, startSentinel),
		Resolved:            m.UMAResolutionStatus == "resolved",
		WinningOutcome:      WinningOutcome(m),
		ResolvedBy:          m.ResolvedBy,
		UMAResolutionStatus: m.UMAResolutionStatus,
		Volume:              float64(m.VolumeNum),
		VolumeClob:          float64(m.VolumeClob),
		Liquidity:           float64(m.LiquidityNum),
		LastTradePrice:      float64(m.LastTradePrice),
		BestAsk:             float64(m.BestAsk),
		BestBid:             float64(m.BestBid),
		Spread:              float64(m.Spread),
		NegRisk:             m.NegRisk,
		GroupItemTitle:      m.GroupItemTitle,
		Restricted:          m.Restricted,
		Active:              bool(m.Active),
		EventSlug:           eventSlug,
		Outcomes:            ExtractOutcomes(m),
	}
	if m.NegRiskMarketID != "" {
		id := m.NegRiskMarketID
		dm.NegRiskMarketID = &id
	}
	return dm
}

// ToDomainEvent converts a Gamma event, resolving its category and
// converting every nested market that carries a condition id.
func (e *APIEvent) ToDomainEvent() domain.Event {
	de := domain.Event{
		Slug:         e.Slug,
		Title:        e.Title,
		Description:  e.Description,
		Category:     CategoryForEvent(e),
		StartDate:    parseTimestamp(e.StartDate, startSentinel),
		EndDate:      parseTimestamp(e.EndDate, endSentinel),
		Closed:       e.Closed,
		Volume:       float64(e.Volume),
		Liquidity:    float64(e.Liquidity),
		OpenInterest: float64(e.OpenInterest),
		Icon:         e.Icon,
		Image:        e.Image,
		CommentCount: int(e.CommentCount),
		Restricted:   e.Restricted,
		Featured:     e.Featured,
	}
	for _, tag := range e.Tags {
		if tag.Label != "" {
			de.Tags = append(de.Tags, tag.Label)
		}
	}
	for i := range e.Markets {
		if e.Markets[i].ConditionID == "" {
			continue
		}
		de.Markets = append(de.Markets, e.Markets[i].ToDomainMarket(e.Slug))
	}
	return de
}
