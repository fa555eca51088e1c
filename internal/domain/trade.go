package domain

import "time"

// Trade sides as reported by the Data API.
const (
	TradeSideBuy  = "BUY"
	TradeSideSell = "SELL"
)

// NullAddress is the zero address; trades attributed to it carry no usable
// trader identity.
const NullAddress = "0x0000000000000000000000000000000000000000"

// Trade is an immutable taker fill, keyed by transaction hash. Market and
// user display fields arrive denormalized from the Data API and are kept as
// plain strings.
type Trade struct {
	TransactionHash string
	Timestamp       time.Time
	Side            string // "BUY" or "SELL"
	SizeUSDC        float64
	Price           float64
	OutcomeName     string
	OutcomeIndex    int
	Asset           string
	ConditionID     string
	MarketSlug      string
	MarketTitle     string
	MarketIcon      string
	EventSlug       string
	TraderAddress   string

	// Trader profile fields, denormalized onto every trade by the API.
	UserName              string
	UserPseudonym         string
	UserBio               string
	UserProfileImage      string
	UserProfileImageOptim string
}

// HasJoinKeys reports whether the trade carries everything required to link
// it into the graph: a transaction hash, a market condition id, and a trader
// address. The zero address counts as present: such trades persist as facts
// even though no user node is ever derived for them.
func (t Trade) HasJoinKeys() bool {
	return t.TransactionHash != "" &&
		t.ConditionID != "" &&
		t.TraderAddress != ""
}
