package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"polygraph/internal/domain"
)

// DataAPIMaxPageSize is the upstream maximum the Data API enforces per
// request regardless of the limit parameter.
const DataAPIMaxPageSize = 500

// DataClient is the REST client for the Polymarket Data API, which serves
// taker-side trade history.
type DataClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDataClient creates a new Data API client.
//
// baseURL is the Data API root, e.g. "https://data-api.polymarket.com".
func NewDataClient(baseURL string, timeout time.Duration) *DataClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DataClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetTrades returns one page of taker fills, optionally filtered to the
// given market condition ids (comma-joined upstream). Each raw fill is
// mapped into the fixed domain trade shape immediately.
func (d *DataClient) GetTrades(ctx context.Context, limit, offset int, conditionIDs []string) ([]domain.Trade, error) {
	if limit <= 0 || limit > DataAPIMaxPageSize {
		limit = DataAPIMaxPageSize
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("takerOnly", "true")
	if len(conditionIDs) > 0 {
		params.Set("market", strings.Join(conditionIDs, ","))
	}

	path := "/trades?" + params.Encode()

	body, err := d.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("polymarket/data: get trades: %w", err)
	}

	var apiTrades []APITrade
	if err := json.Unmarshal(body, &apiTrades); err != nil {
		return nil, fmt.Errorf("polymarket/data: decode trades: %w", err)
	}

	trades := make([]domain.Trade, 0, len(apiTrades))
	for i := range apiTrades {
		trades = append(trades, apiTrades[i].ToDomainTrade())
	}

	return trades, nil
}

// doGet sends an unauthenticated GET request to the Data API.
func (d *DataClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}
