package model

// SessionRequest carries the user key for the key-bearing lifecycle endpoints.
type SessionRequest struct {
	UserPrivateKey string `json:"userPrivateKey"`
}

type SessionResponse struct {
	Success     bool   `json:"success"`
	EOAAddress  string `json:"eoaAddress,omitempty"`
	SafeAddress string `json:"safeAddress,omitempty"`
}

type DeployResponse struct {
	Success         bool   `json:"success"`
	SafeAddress     string `json:"safeAddress"`
	TransactionHash string `json:"transactionHash,omitempty"`
	AlreadyDeployed bool   `json:"alreadyDeployed"`
}

type CredentialsResponse struct {
	Success        bool `json:"success"`
	HasCredentials bool `json:"hasCredentials"`
}

type ApprovalsResponse struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transactionHash,omitempty"`
	AlreadyApproved bool   `json:"alreadyApproved"`
}

// OrderRequest is the public place-order body. The wallet is addressed by
// its Safe; the signing key never travels with an order.
type OrderRequest struct {
	SafeAddress string  `json:"safeAddress"`
	MarketID    string  `json:"marketId"`
	Side        string  `json:"side"`
	Size        float64 `json:"size"`
	Price       float64 `json:"price"`
	Outcome     string  `json:"outcome"`
	// OrderType is "limit" (default) or "market".
	OrderType string `json:"orderType,omitempty"`
}

type OrderResult struct {
	Success         bool   `json:"success"`
	OrderID         string `json:"orderId,omitempty"`
	TransactionHash string `json:"transactionHash,omitempty"`
	Status          string `json:"status,omitempty"`
}

type RedeemRequest struct {
	SafeAddress string   `json:"safeAddress"`
	ConditionID string   `json:"conditionId"`
	IndexSets   []int64  `json:"indexSets"`
	Amounts     []string `json:"amounts,omitempty"`
}

type RedeemResponse struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transactionHash"`
}

type Position struct {
	TokenID      string  `json:"tokenId"`
	Market       string  `json:"market"`
	Outcome      string  `json:"outcome"`
	Size         float64 `json:"size"`
	AvgPrice     float64 `json:"avgPrice"`
	CurrentPrice float64 `json:"currentPrice"`
	PnL          float64 `json:"pnl"`
}

type PositionsResponse struct {
	Success     bool       `json:"success"`
	USDCBalance string     `json:"usdcBalance"`
	Positions   []Position `json:"positions"`
	PnL         float64    `json:"pnl"`
}
