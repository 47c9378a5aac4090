package service

import (
	"context"

	"github.com/PrecedenceMarkets/lexgate/internal/chain"
	"github.com/PrecedenceMarkets/lexgate/internal/market"
	"github.com/PrecedenceMarkets/lexgate/internal/model"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/apperrors"
	"github.com/PrecedenceMarkets/lexgate/internal/venue"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// PositionService reads a wallet's collateral balance and open positions
// and computes PnL against the freshest mark price available.
type PositionService struct {
	chain chain.Reader
	data  venue.PositionSource
	books *market.BookCache
}

func NewPositionService(chainReader chain.Reader, data venue.PositionSource, books *market.BookCache) *PositionService {
	return &PositionService{chain: chainReader, data: data, books: books}
}

func (s *PositionService) Positions(ctx context.Context, safeAddress string) (*model.PositionsResponse, error) {
	if !addressPattern.MatchString(safeAddress) {
		return nil, apperrors.NewValidation("invalid safeAddress format")
	}
	safe := common.HexToAddress(safeAddress)

	balance, err := s.chain.Erc20Balance(ctx, chain.USDCe, safe)
	if err != nil {
		return nil, apperrors.NewExecution("failed to read collateral balance", err)
	}
	usdc := decimal.NewFromBigInt(balance, -chain.CollateralDecimals)

	raw, err := s.data.Positions(ctx, safe.Hex())
	if err != nil {
		return nil, apperrors.NewExecution("failed to read positions", err)
	}

	positions := make([]model.Position, 0, len(raw))
	totalPnL := 0.0
	for _, p := range raw {
		mark := p.CurPrice
		if s.books != nil {
			if live, ok := s.books.MarkPrice(p.Asset); ok {
				mark = live
			}
		}
		pnl := (mark - p.AvgPrice) * p.Size
		if p.CashPnL != 0 {
			pnl = p.CashPnL
		}
		totalPnL += pnl
		positions = append(positions, model.Position{
			TokenID:      p.Asset,
			Market:       p.Title,
			Outcome:      p.Outcome,
			Size:         p.Size,
			AvgPrice:     p.AvgPrice,
			CurrentPrice: mark,
			PnL:          pnl,
		})
	}

	return &model.PositionsResponse{
		Success:     true,
		USDCBalance: usdc.StringFixed(2),
		Positions:   positions,
		PnL:         totalPnL,
	}, nil
}
