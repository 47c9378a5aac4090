package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DataPosition is one open position as the data API reports it.
type DataPosition struct {
	Asset       string  `json:"asset"`
	ConditionID string  `json:"conditionId"`
	Title       string  `json:"title"`
	Outcome     string  `json:"outcome"`
	Size        float64 `json:"size"`
	AvgPrice    float64 `json:"avgPrice"`
	CurPrice    float64 `json:"curPrice"`
	CashPnL     float64 `json:"cashPnl"`
}

// PositionSource reads a wallet's open positions.
type PositionSource interface {
	Positions(ctx context.Context, wallet string) ([]DataPosition, error)
}

type DataClient struct {
	baseURL string
	http    *http.Client
}

func NewDataClient(baseURL string, httpClient *http.Client) *DataClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &DataClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *DataClient) Positions(ctx context.Context, wallet string) ([]DataPosition, error) {
	params := url.Values{}
	params.Set("user", wallet)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/positions?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("data api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("data api http %d: %s", resp.StatusCode, string(body))
	}

	var positions []DataPosition
	if err := json.NewDecoder(resp.Body).Decode(&positions); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	return positions, nil
}
