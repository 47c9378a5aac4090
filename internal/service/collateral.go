package service

import (
	"context"
	"math/big"
	"time"

	relaytypes "github.com/GoPolymarket/go-builder-relayer-client/pkg/types"
	"github.com/PrecedenceMarkets/lexgate/internal/chain"
	"github.com/PrecedenceMarkets/lexgate/internal/model"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/logger"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/metrics"
	"github.com/PrecedenceMarkets/lexgate/internal/relay"
	"github.com/shopspring/decimal"
)

// swapPoolFee is the 0.01% USDC/USDC.e pool.
var swapPoolFee = big.NewInt(100)

// normalizeCollateral converts the Safe's native USDC into bridged USDC.e
// when the bridged balance cannot cover a minimum trade. Best-effort: any
// failure marks the stage and moves on, it never fails the caller.
func (s *SessionService) normalizeCollateral(ctx context.Context, clients *Clients, sess *model.Session) {
	minTrade := decimal.NewFromFloat(s.cfg.Trading.MinTradeUSDC).
		Mul(decimal.New(1, chain.CollateralDecimals)).BigInt()

	bridged, err := s.chain.Erc20Balance(ctx, chain.USDCe, clients.Safe)
	if err != nil {
		s.markCollateral(ctx, sess, model.StageFailed, "read bridged balance", err)
		return
	}
	if bridged.Cmp(minTrade) >= 0 {
		sess.Collateralized = true
		s.markCollateral(ctx, sess, model.StageDone, "", nil)
		return
	}

	native, err := s.chain.Erc20Balance(ctx, chain.NativeUSDC, clients.Safe)
	if err != nil {
		s.markCollateral(ctx, sess, model.StageFailed, "read native balance", err)
		return
	}
	if native.Sign() <= 0 {
		// Nothing to convert; not an error, just an unfunded wallet.
		s.markCollateral(ctx, sess, model.StageSkipped, "", nil)
		return
	}

	slippage := big.NewInt(10_000 - s.cfg.Trading.SlippageBps)
	minOut := new(big.Int).Div(new(big.Int).Mul(native, slippage), big.NewInt(10_000))
	deadline := big.NewInt(time.Now().Add(10 * time.Minute).Unix())

	approveData, err := chain.PackApprove(chain.SwapRouter, native)
	if err != nil {
		s.markCollateral(ctx, sess, model.StageFailed, "pack approve", err)
		return
	}
	swapData, err := chain.PackExactInputSingle(chain.SwapParams{
		TokenIn:   chain.NativeUSDC,
		TokenOut:  chain.USDCe,
		Fee:       swapPoolFee,
		Recipient: clients.Safe,
		Deadline:  deadline,
		AmountIn:  native,
		MinOut:    minOut,
	})
	if err != nil {
		s.markCollateral(ctx, sess, model.StageFailed, "pack swap", err)
		return
	}

	logger.Info("normalizing collateral",
		"safe", clients.Safe.Hex(),
		"native_in", native.String(),
		"min_out", minOut.String(),
	)
	_, execErr := clients.Relay.Execute(ctx, []relaytypes.Transaction{
		relay.Tx(chain.NativeUSDC.Hex(), approveData),
		relay.Tx(chain.SwapRouter.Hex(), swapData),
	}, "Converting USDC to bridged collateral")
	if execErr != nil {
		metrics.RelaySubmissions.WithLabelValues("collateral", "error").Inc()
		s.markCollateral(ctx, sess, model.StageFailed, "swap execution", execErr)
		return
	}
	metrics.RelaySubmissions.WithLabelValues("collateral", "ok").Inc()

	sess.Collateralized = true
	s.markCollateral(ctx, sess, model.StageDone, "", nil)
}

func (s *SessionService) markCollateral(ctx context.Context, sess *model.Session, status model.StageStatus, step string, err error) {
	sess.Stages["collateral"] = status
	if saveErr := s.save(ctx, sess); saveErr != nil {
		logger.Error("failed to save collateral stage", "error", saveErr)
	}

	switch status {
	case model.StageFailed:
		metrics.StageRuns.WithLabelValues("collateral", "error").Inc()
		logger.Warn("collateral normalization degraded",
			"step", step,
			"error", err,
			"safe", sess.SafeAddress,
		)
	case model.StageSkipped:
		metrics.StageRuns.WithLabelValues("collateral", "skipped").Inc()
	default:
		metrics.StageRuns.WithLabelValues("collateral", "ok").Inc()
	}
}
