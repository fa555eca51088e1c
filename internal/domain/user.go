package domain

import "time"

// User is a trader wallet, created lazily from the first trade seen for its
// address.
type User struct {
	Address               string
	Role                  string // always "trader" for API-sourced users
	Name                  string
	Pseudonym             string
	Bio                   string
	ProfileImage          string
	ProfileImageOptimized string
}

// Holding is the derived HOLDS edge from a user to an outcome: the sum of
// BUY-side trade sizes and the most recent BUY timestamp. It is recomputed
// from persisted trades on every load, never maintained incrementally.
type Holding struct {
	UserAddress  string
	ConditionID  string
	OutcomeIndex int
	InvestedUSDC float64
	LastUpdated  time.Time
}
