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

// Market is the resolved gamma record the order path needs.
type Market struct {
	ID              string
	Question        string
	ConditionID     string
	TokenIDs        []string
	Outcomes        []string
	NegRisk         bool
	EnableOrderBook bool
	Closed          bool
	Active          bool
}

// TokenForOutcome maps a Yes/No outcome to its clob token id. Outcome
// matching is case-insensitive; position falls back to the venue's
// convention of Yes first, No second.
func (m *Market) TokenForOutcome(outcome string) (string, error) {
	want := strings.ToLower(strings.TrimSpace(outcome))
	for i, o := range m.Outcomes {
		if strings.ToLower(o) == want && i < len(m.TokenIDs) {
			return m.TokenIDs[i], nil
		}
	}
	idx := -1
	switch want {
	case "yes":
		idx = 0
	case "no":
		idx = 1
	}
	if idx < 0 || idx >= len(m.TokenIDs) {
		return "", fmt.Errorf("market %s has no token for outcome %q", m.ID, outcome)
	}
	return m.TokenIDs[idx], nil
}

// MarketResolver looks market metadata up by id.
type MarketResolver interface {
	Market(ctx context.Context, id string) (*Market, error)
}

type gammaMarket struct {
	ID              string `json:"id"`
	Question        string `json:"question"`
	ConditionID     string `json:"conditionId"`
	Slug            string `json:"slug"`
	ClobTokenIDs    string `json:"clobTokenIds"`
	Outcomes        string `json:"outcomes"`
	NegRisk         bool   `json:"negRisk"`
	EnableOrderBook bool   `json:"enableOrderBook"`
	Closed          bool   `json:"closed"`
	Active          bool   `json:"active"`
}

// GammaClient resolves markets against the gamma API.
type GammaClient struct {
	baseURL string
	http    *http.Client
}

func NewGammaClient(baseURL string, httpClient *http.Client) *GammaClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &GammaClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *GammaClient) Market(ctx context.Context, id string) (*Market, error) {
	params := url.Values{}
	params.Set("id", id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/markets?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gamma request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gamma http %d: %s", resp.StatusCode, string(body))
	}

	var raw []gammaMarket
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode gamma response: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("market %s not found", id)
	}
	return parseGammaMarket(raw[0])
}

func parseGammaMarket(raw gammaMarket) (*Market, error) {
	market := &Market{
		ID:              raw.ID,
		Question:        raw.Question,
		ConditionID:     raw.ConditionID,
		NegRisk:         raw.NegRisk,
		EnableOrderBook: raw.EnableOrderBook,
		Closed:          raw.Closed,
		Active:          raw.Active,
	}

	// Gamma string-encodes these arrays inside the JSON payload.
	if raw.ClobTokenIDs != "" {
		if err := json.Unmarshal([]byte(raw.ClobTokenIDs), &market.TokenIDs); err != nil {
			return nil, fmt.Errorf("parse clobTokenIds for market %s: %w", raw.ID, err)
		}
	}
	if raw.Outcomes != "" {
		if err := json.Unmarshal([]byte(raw.Outcomes), &market.Outcomes); err != nil {
			return nil, fmt.Errorf("parse outcomes for market %s: %w", raw.ID, err)
		}
	}
	return market, nil
}
