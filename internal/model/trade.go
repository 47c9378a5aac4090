package model

import "time"

// Trade is the persisted record of a confirmed order, one row per fill
// attempt that the venue or relayer accepted.
type Trade struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	SafeAddress string    `gorm:"index" json:"safe_address"`
	MarketID    string    `gorm:"index" json:"market_id"`
	TokenID     string    `json:"token_id"`
	Side        string    `json:"side"`
	Outcome     string    `json:"outcome"`
	Size        float64   `json:"size"`
	Price       float64   `json:"price"`
	OrderID     string    `json:"order_id"`
	TxHash      string    `json:"tx_hash"`
	Venue       string    `json:"venue"` // "clob" or "amm"
	CreatedAt   time.Time `json:"created_at"`
}

func (Trade) TableName() string {
	return "trades"
}
