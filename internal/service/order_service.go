package service

import (
	"context"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	relaytypes "github.com/GoPolymarket/go-builder-relayer-client/pkg/types"
	"github.com/GoPolymarket/polymarket-go-sdk/pkg/clob/clobtypes"
	"github.com/PrecedenceMarkets/lexgate/internal/chain"
	"github.com/PrecedenceMarkets/lexgate/internal/config"
	"github.com/PrecedenceMarkets/lexgate/internal/market"
	"github.com/PrecedenceMarkets/lexgate/internal/model"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/apperrors"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/logger"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/metrics"
	"github.com/PrecedenceMarkets/lexgate/internal/relay"
	"github.com/PrecedenceMarkets/lexgate/internal/repository"
	"github.com/PrecedenceMarkets/lexgate/internal/venue"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

const (
	priceDecimals = 3
	sizeDecimals  = 2
)

// OrderService routes orders: order-book markets go to the exchange, AMM
// markets settle through relay-executed split/merge.
type OrderService struct {
	sessions *SessionService
	markets  venue.MarketResolver
	books    *market.BookCache
	trades   repository.TradeRepo
	cfg      *config.Config
}

func NewOrderService(sessions *SessionService, markets venue.MarketResolver, books *market.BookCache, trades repository.TradeRepo, cfg *config.Config) *OrderService {
	return &OrderService{
		sessions: sessions,
		markets:  markets,
		books:    books,
		trades:   trades,
		cfg:      cfg,
	}
}

// normalizePrice floors to 3 decimals. Never rounds up: a truncated order
// must cost at most what the caller asked for.
func normalizePrice(price float64) float64 {
	return decimal.NewFromFloat(price).Truncate(priceDecimals).InexactFloat64()
}

// normalizeSize floors to 2 decimals.
func normalizeSize(size float64) float64 {
	return decimal.NewFromFloat(size).Truncate(sizeDecimals).InexactFloat64()
}

func (s *OrderService) validate(req model.OrderRequest) error {
	if req.SafeAddress == "" || req.MarketID == "" || req.Side == "" || req.Outcome == "" || req.Size == 0 {
		return apperrors.NewValidation("Missing required parameters: safeAddress, marketId, side, size, outcome")
	}
	if !addressPattern.MatchString(req.SafeAddress) {
		return apperrors.NewValidation("invalid safeAddress format")
	}
	side := strings.ToUpper(req.Side)
	if side != "BUY" && side != "SELL" {
		return apperrors.NewValidation("side must be BUY or SELL")
	}
	if req.Size < s.cfg.Trading.MinOrderSize || req.Size > s.cfg.Trading.MaxOrderSize {
		return apperrors.NewValidation(fmt.Sprintf("size must be between %g and %g",
			s.cfg.Trading.MinOrderSize, s.cfg.Trading.MaxOrderSize))
	}
	if req.Price < 0 || req.Price > 1 {
		return apperrors.NewValidation("price must be between 0 and 1")
	}
	outcome := strings.ToLower(req.Outcome)
	if outcome != "yes" && outcome != "no" {
		return apperrors.NewValidation("outcome must be Yes or No")
	}
	return nil
}

func orderTypeFor(req model.OrderRequest) clobtypes.OrderType {
	if strings.EqualFold(strings.TrimSpace(req.OrderType), "market") {
		return clobtypes.OrderTypeFOK
	}
	return clobtypes.OrderTypeGTC
}

func isGeoBlocked(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "403") ||
		strings.Contains(msg, "forbidden") ||
		strings.Contains(msg, "restricted") ||
		strings.Contains(msg, "blocked")
}

func (s *OrderService) PlaceOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error) {
	if err := s.validate(req); err != nil {
		metrics.OrdersTotal.WithLabelValues("rejected", strings.ToUpper(req.Side)).Inc()
		return nil, err
	}

	clients, sess, err := s.sessions.ClientsForSafe(ctx, req.SafeAddress)
	if err != nil {
		return nil, err
	}
	if !sess.Deployed || !sess.Approved {
		return nil, apperrors.NewPrecondition("wallet is not ready to trade; complete the deploy and approval stages first")
	}

	mkt, err := s.markets.Market(ctx, req.MarketID)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("error", strings.ToUpper(req.Side)).Inc()
		return nil, apperrors.NewExecution("failed to resolve market", err)
	}
	if mkt.Closed || !mkt.Active {
		return nil, apperrors.NewInvalidMarket(fmt.Sprintf("market %s is not open for trading", req.MarketID))
	}

	side := strings.ToUpper(req.Side)
	price := normalizePrice(req.Price)
	size := normalizeSize(req.Size)

	var result *model.OrderResult
	if mkt.EnableOrderBook {
		result, err = s.placeBookOrder(ctx, clients, sess, mkt, req, side, price, size)
	} else {
		result, err = s.placeAmmOrder(ctx, clients, mkt, side, size)
	}
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("error", side).Inc()
		return nil, err
	}

	metrics.OrdersTotal.WithLabelValues("ok", side).Inc()
	s.recordTrade(ctx, req, mkt, side, price, size, result)
	return result, nil
}

func (s *OrderService) placeBookOrder(ctx context.Context, clients *Clients, sess *model.Session, mkt *venue.Market, req model.OrderRequest, side string, price, size float64) (*model.OrderResult, error) {
	if !sess.HasCredentials() {
		return nil, apperrors.NewPrecondition("venue credentials missing; run the credential stage first")
	}

	tokenID, err := mkt.TokenForOutcome(req.Outcome)
	if err != nil {
		return nil, apperrors.NewInvalidMarket(err.Error())
	}

	creds := venue.Credentials{
		Key:        sess.ApiKey,
		Secret:     sess.ApiSecret,
		Passphrase: sess.ApiPassphrase,
	}
	spec := OrderSpec{
		TokenID: tokenID,
		Side:    side,
		Price:   price,
		Size:    size,
		Type:    orderTypeFor(req),
		NegRisk: mkt.NegRisk,
	}

	ack, err := clients.Poster.PostOrder(ctx, creds, spec)
	if err != nil {
		if isGeoBlocked(err) {
			return nil, apperrors.NewGeoBlocked()
		}
		return nil, apperrors.NewExecution("venue rejected the order", err)
	}

	logger.Info("order posted",
		"market", mkt.ID,
		"token", tokenID,
		"side", side,
		"price", price,
		"size", size,
		"order_id", ack.OrderID,
	)
	return &model.OrderResult{Success: true, OrderID: ack.OrderID, Status: "submitted"}, nil
}

// placeAmmOrder settles against the conditional token framework directly:
// buys mint a full outcome set from collateral, sells merge one back.
func (s *OrderService) placeAmmOrder(ctx context.Context, clients *Clients, mkt *venue.Market, side string, size float64) (*model.OrderResult, error) {
	if mkt.ConditionID == "" {
		return nil, apperrors.NewInvalidMarket(fmt.Sprintf("market %s has no condition id", mkt.ID))
	}
	conditionID := common.HexToHash(mkt.ConditionID)

	amount := decimal.NewFromFloat(size).
		Mul(decimal.New(1, chain.CollateralDecimals)).BigInt()
	if amount.Cmp(big.NewInt(0)) <= 0 {
		return nil, apperrors.NewValidation("size too small after truncation")
	}

	var data string
	var err error
	var action string
	if side == "BUY" {
		data, err = chain.PackSplitPosition(conditionID, amount)
		action = "Splitting collateral into outcome set"
	} else {
		data, err = chain.PackMergePositions(conditionID, amount)
		action = "Merging outcome set into collateral"
	}
	if err != nil {
		return nil, apperrors.Wrap(err)
	}

	txID, execErr := clients.Relay.Execute(ctx,
		[]relaytypes.Transaction{relay.Tx(chain.ConditionalTokens.Hex(), data)},
		action,
	)
	if execErr != nil {
		if relay.IsTimeout(execErr) {
			metrics.RelaySubmissions.WithLabelValues("amm_order", "timeout").Inc()
			return nil, apperrors.NewRelayTimeout(execErr)
		}
		metrics.RelaySubmissions.WithLabelValues("amm_order", "error").Inc()
		return nil, apperrors.NewExecution("on-chain settlement failed", execErr)
	}
	metrics.RelaySubmissions.WithLabelValues("amm_order", "ok").Inc()

	logger.Info("amm order settled", "market", mkt.ID, "side", side, "size", size, "tx", txID)
	return &model.OrderResult{Success: true, TransactionHash: txID, Status: "submitted"}, nil
}

func (s *OrderService) recordTrade(ctx context.Context, req model.OrderRequest, mkt *venue.Market, side string, price, size float64, result *model.OrderResult) {
	if s.trades == nil {
		return
	}
	tradeVenue := "clob"
	if result.TransactionHash != "" && result.OrderID == "" {
		tradeVenue = "amm"
	}
	tokenID, _ := mkt.TokenForOutcome(req.Outcome)
	trade := &model.Trade{
		ID:          uuid.NewString(),
		SafeAddress: strings.ToLower(req.SafeAddress),
		MarketID:    mkt.ID,
		TokenID:     tokenID,
		Side:        side,
		Outcome:     req.Outcome,
		Size:        size,
		Price:       price,
		OrderID:     result.OrderID,
		TxHash:      result.TransactionHash,
		Venue:       tradeVenue,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.trades.Save(ctx, trade); err != nil {
		logger.Warn("trade persistence failed", "error", err, "market", mkt.ID)
	}
}

// Redeem claims winnings for a resolved condition through the relay. The
// caller must name the condition and index sets; nothing is guessed.
func (s *OrderService) Redeem(ctx context.Context, req model.RedeemRequest) (*model.RedeemResponse, error) {
	if req.SafeAddress == "" || req.ConditionID == "" || len(req.IndexSets) == 0 {
		return nil, apperrors.NewValidation("Missing required parameters: safeAddress, conditionId, indexSets")
	}
	if !addressPattern.MatchString(req.SafeAddress) {
		return nil, apperrors.NewValidation("invalid safeAddress format")
	}

	clients, _, err := s.sessions.ClientsForSafe(ctx, req.SafeAddress)
	if err != nil {
		return nil, err
	}

	indexSets := make([]*big.Int, 0, len(req.IndexSets))
	for _, set := range req.IndexSets {
		if set <= 0 {
			return nil, apperrors.NewValidation("indexSets must be positive")
		}
		indexSets = append(indexSets, big.NewInt(set))
	}

	data, err := chain.PackRedeemPositions(common.HexToHash(req.ConditionID), indexSets)
	if err != nil {
		return nil, apperrors.Wrap(err)
	}

	txID, execErr := clients.Relay.Execute(ctx,
		[]relaytypes.Transaction{relay.Tx(chain.ConditionalTokens.Hex(), data)},
		"Redeeming resolved positions",
	)
	if execErr != nil {
		if relay.IsTimeout(execErr) {
			return nil, apperrors.NewRelayTimeout(execErr)
		}
		return nil, apperrors.NewExecution("redemption failed", execErr)
	}

	return &model.RedeemResponse{Success: true, TransactionHash: txID}, nil
}

// OrderBook returns the cached books for every outcome token of a market.
func (s *OrderService) OrderBook(ctx context.Context, marketID string) (map[string]interface{}, error) {
	if marketID == "" {
		return nil, apperrors.NewValidation("Missing required parameters: marketId")
	}
	mkt, err := s.markets.Market(ctx, marketID)
	if err != nil {
		return nil, apperrors.NewExecution("failed to resolve market", err)
	}

	books := make(map[string]interface{}, len(mkt.TokenIDs))
	if s.books != nil {
		s.books.Subscribe(mkt.TokenIDs)
		for _, tokenID := range mkt.TokenIDs {
			book := s.books.GetBook(tokenID)
			if book == nil {
				continue
			}
			bids, asks := book.Snapshot()
			books[tokenID] = map[string]interface{}{"bids": bids, "asks": asks}
		}
	}
	return map[string]interface{}{
		"marketId": mkt.ID,
		"question": mkt.Question,
		"books":    books,
	}, nil
}
