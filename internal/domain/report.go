package domain

// LoadCounts summarizes one graph load. Running the same load twice against
// the same store yields identical node counts as running it once.
type LoadCounts struct {
	Events        int
	Markets       int
	Outcomes      int
	Users         int
	Trades        int
	SkippedTrades int // trades missing hash, condition id, or trader address
	GroupLinks    int64
	Holdings      int64
}

// Coverage accounts for requested vs. successfully fetched market keys
// during trade ingestion. Missing keys are reported, not retried, unless the
// pipeline opts in to a retry pass.
type Coverage struct {
	Requested  int
	WithTrades int
	Missing    []string
	Trades     int
}

// NodeCounts holds per-label node totals.
type NodeCounts struct {
	Events   int64
	Markets  int64
	Outcomes int64
	Users    int64
	Trades   int64
}

// EdgeCount is the total for one relationship type.
type EdgeCount struct {
	Type  string
	Count int64
}

// IntegrityCheck is one referential-integrity predicate and its violation
// count. Non-zero counts are warnings, never failures.
type IntegrityCheck struct {
	Name       string
	Violations int64
}

// ResolutionStats summarizes market lifecycle state.
type ResolutionStats struct {
	Total    int64
	Resolved int64
	Closed   int64
	Active   int64
}

// VolumeStats summarizes trade volume across the graph.
type VolumeStats struct {
	TradeCount   int64
	TotalVolume  float64
	AvgTradeSize float64
	MinTrade     float64
	MaxTrade     float64
	BuyCount     int64
	BuyVolume    float64
	SellCount    int64
	SellVolume   float64
}

// TraderRank is one row of the top-traders-by-volume ranking.
type TraderRank struct {
	Address    string
	Volume     float64
	TradeCount int64
}

// MarketRank is one row of the top-markets-by-volume ranking.
type MarketRank struct {
	Question string
	Slug     string
	Volume   float64
}

// EventRank is one row of the top-events-by-volume ranking.
type EventRank struct {
	Title    string
	Category string
	Volume   float64
}

// VerifyReport is the verifier's full output.
type VerifyReport struct {
	Nodes      NodeCounts
	Edges      []EdgeCount
	Integrity  []IntegrityCheck
	Resolution ResolutionStats
	Volume     VolumeStats
	TopTraders []TraderRank
	TopMarkets []MarketRank
	TopEvents  []EventRank
}

// Violations returns the sum of all integrity violation counts.
func (r VerifyReport) Violations() int64 {
	var total int64
	for _, c := range r.Integrity {
		total += c.Violations
	}
	return total
}
