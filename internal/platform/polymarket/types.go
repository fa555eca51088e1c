package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"polygraph/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether a flag is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number or a numeric string. Anything
// unparsable decodes to zero rather than failing the record.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(n)
	return nil
}

// flexInt unmarshals from a JSON number or a numeric string, defaulting to
// zero on malformed input.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexInt(n)
		return nil
	}
	var fl float64
	if err := json.Unmarshal(data, &fl); err == nil {
		*f = flexInt(int64(fl))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// flexStrings unmarshals a field that arrives either as a JSON array of
// strings or as a JSON-encoded string of such an array, e.g.
// "[\"Yes\",\"No\"]". Absent or malformed values decode to an empty slice.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*f = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = nil
		return nil
	}
	if err := json.Unmarshal([]byte(s), &arr); err != nil {
		*f = nil
		return nil
	}
	*f = arr
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APITag is a tag entry on a Gamma event.
type APITag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// APIEvent represents an event as returned by the Gamma API listing
// endpoint. An event groups one or more related markets.
type APIEvent struct {
	ID           string      `json:"id"`
	Slug         string      `json:"slug"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Category     string      `json:"category"` // often empty; tags carry it
	StartDate    string      `json:"startDate"`
	EndDate      string      `json:"endDate"`
	Active       flexBool    `json:"active"`
	Closed       bool        `json:"closed"`
	Volume       flexFloat   `json:"volume"`
	Liquidity    flexFloat   `json:"liquidity"`
	OpenInterest flexFloat   `json:"openInterest"`
	Icon         string      `json:"icon"`
	Image        string      `json:"image"`
	CommentCount flexInt     `json:"commentCount"`
	Restricted   bool        `json:"restricted"`
	Featured     bool        `json:"featured"`
	Tags         []APITag    `json:"tags"`
	Markets      []APIMarket `json:"markets"`
}

// APIMarket represents a market nested inside a Gamma event. The three
// outcome fields are parallel arrays that the API string-encodes.
type APIMarket struct {
	ID                  string      `json:"id"`
	ConditionID         string      `json:"conditionId"`
	Question            string      `json:"question"`
	Slug                string      `json:"slug"`
	Description         string      `json:"description"`
	QuestionID          string      `json:"questionID"`
	StartDate           string      `json:"startDate"`
	EndDate             string      `json:"endDate"`
	Closed              bool        `json:"closed"`
	ClosedTime          string      `json:"closedTime"`
	UMAResolutionStatus string      `json:"umaResolutionStatus"`
	ResolvedBy          string      `json:"resolvedBy"`
	Outcomes            flexStrings `json:"outcomes"`
	OutcomePrices       flexStrings `json:"outcomePrices"`
	ClobTokenIDs        flexStrings `json:"clobTokenIds"`
	VolumeNum           flexFloat   `json:"volumeNum"`
	VolumeClob          flexFloat   `json:"volumeClob"`
	LiquidityNum        flexFloat   `json:"liquidityNum"`
	LastTradePrice      flexFloat   `json:"lastTradePrice"`
	BestAsk             flexFloat   `json:"bestAsk"`
	BestBid             flexFloat   `json:"bestBid"`
	Spread              flexFloat   `json:"spread"`
	NegRisk             bool        `json:"negRisk"`
	NegRiskMarketID     string      `json:"negRiskMarketID"`
	GroupItemTitle      string      `json:"groupItemTitle"`
	Restricted          bool        `json:"restricted"`
	Active              flexBool    `json:"active"`
}

// --------------------------------------------------------------------------
// Data API DTOs
// --------------------------------------------------------------------------

// APITrade represents one taker fill as returned by the Data API /trades
// endpoint. Numeric fields arrive as numbers or strings depending on the
// deployment, so every one is decoded flexibly.
type APITrade struct {
	TransactionHash       string    `json:"transactionHash"`
	ProxyWallet           string    `json:"proxyWallet"`
	Side                  string    `json:"side"`
	Asset                 string    `json:"asset"`
	ConditionID           string    `json:"conditionId"`
	Outcome               string    `json:"outcome"`
	OutcomeIndex          flexInt   `json:"outcomeIndex"`
	Size                  flexFloat `json:"size"`
	Price                 flexFloat `json:"price"`
	Timestamp             flexInt   `json:"timestamp"` // epoch seconds
	Title                 string    `json:"title"`
	Slug                  string    `json:"slug"`
	Icon                  string    `json:"icon"`
	EventSlug             string    `json:"eventSlug"`
	Name                  string    `json:"name"`
	Pseudonym             string    `json:"pseudonym"`
	Bio                   string    `json:"bio"`
	ProfileImage          string    `json:"profileImage"`
	ProfileImageOptimized string    `json:"profileImageOptimized"`
}

// ToDomainTrade maps a raw fill into the fixed internal trade shape. Every
// field has an explicit default so downstream code never branches on
// absence; the raw representation is not retained.
func (t *APITrade) ToDomainTrade() domain.Trade {
	return domain.Trade{
		TransactionHash:       t.TransactionHash,
		Timestamp:             time.Unix(int64(t.Timestamp), 0).UTC(),
		Side:                  t.Side,
		SizeUSDC:              float64(t.Size),
		Price:                 float64(t.Price),
		OutcomeName:           t.Outcome,
		OutcomeIndex:          int(t.OutcomeIndex),
		Asset:                 t.Asset,
		ConditionID:           t.ConditionID,
		MarketSlug:            t.Slug,
		MarketTitle:           t.Title,
		MarketIcon:            t.Icon,
		EventSlug:             t.EventSlug,
		TraderAddress:         t.ProxyWallet,
		UserName:              t.Name,
		UserPseudonym:         t.Pseudonym,
		UserBio:               t.Bio,
		UserProfileImage:      t.ProfileImage,
		UserProfileImageOptim: t.ProfileImageOptimized,
	}
}
