package domain

import "time"

// Event groups one or more related markets under a single question theme
// (e.g. an election with one market per candidate).
type Event struct {
	Slug         string
	Title        string
	Description  string
	Category     string
	StartDate    time.Time
	EndDate      time.Time
	Closed       bool
	Volume       float64
	Liquidity    float64
	OpenInterest float64
	Icon         string
	Image        string
	CommentCount int
	Tags         []string
	Restricted   bool
	Featured     bool
	Markets      []Market
}
