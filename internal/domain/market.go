package domain

import "time"

// Market represents a Polymarket prediction market, keyed by its CTF
// condition id. EventSlug links it to its parent event.
type Market struct {
	ConditionID         string
	Question            string
	Slug                string
	Description         string
	QuestionID          string
	StartDate           time.Time
	EndDate             time.Time
	Closed              bool
	ClosedTime          time.Time
	Resolved            bool
	WinningOutcome      *string // nil until resolution is confirmed
	ResolvedBy          string
	UMAResolutionStatus string
	Volume              float64
	VolumeClob          float64
	Liquidity           float64
	LastTradePrice      float64
	BestAsk             float64
	BestBid             float64
	Spread              float64
	NegRisk             bool
	NegRiskMarketID     *string // shared by markets in the same neg-risk group
	GroupItemTitle      string
	Restricted          bool
	Active              bool
	EventSlug           string
	Outcomes            []Outcome
}

// Outcome is one possible resolution value of a market. Index is the
// position in the market's parallel outcome arrays and, together with
// ConditionID, forms the outcome's unique key.
type Outcome struct {
	ConditionID string
	Index       int
	Name        string
	Price       float64 // current price in [0,1], best effort
	TokenID     string
}
