package repository

import (
	"context"
	"fmt"

	"github.com/PrecedenceMarkets/lexgate/internal/config"
	"github.com/PrecedenceMarkets/lexgate/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// TradeRepo records confirmed trades. Persistence is best-effort: a write
// failure is logged by callers, never surfaced to the trading path.
type TradeRepo interface {
	Save(ctx context.Context, trade *model.Trade) error
	ListBySafe(ctx context.Context, safeAddress string, limit int) ([]model.Trade, error)
}

func NewDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&model.Trade{}); err != nil {
		return nil, fmt.Errorf("migrate trades: %w", err)
	}
	return db, nil
}

type PostgresTradeRepo struct {
	db *gorm.DB
}

func NewPostgresTradeRepo(db *gorm.DB) *PostgresTradeRepo {
	return &PostgresTradeRepo{db: db}
}

func (r *PostgresTradeRepo) Save(ctx context.Context, trade *model.Trade) error {
	return r.db.WithContext(ctx).Create(trade).Error
}

func (r *PostgresTradeRepo) ListBySafe(ctx context.Context, safeAddress string, limit int) ([]model.Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	var trades []model.Trade
	err := r.db.WithContext(ctx).
		Where("safe_address = ?", safeAddress).
		Order("created_at desc").
		Limit(limit).
		Find(&trades).Error
	return trades, err
}
