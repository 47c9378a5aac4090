package service

import (
	"context"
	"math/big"

	relaytypes "github.com/GoPolymarket/go-builder-relayer-client/pkg/types"
	"github.com/PrecedenceMarkets/lexgate/internal/chain"
	"github.com/PrecedenceMarkets/lexgate/internal/model"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/apperrors"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/logger"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/metrics"
	"github.com/PrecedenceMarkets/lexgate/internal/relay"
	"github.com/ethereum/go-ethereum/common"
)

// approvedThreshold is 1,000,000 whole collateral tokens. An allowance at
// or above this is treated as set; the setter always writes MaxUint256.
var approvedThreshold = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1_000_000))

// The fixed approval surface trading needs. USDC.e allowances for every
// contract that pulls collateral, operator rights for every contract that
// moves outcome tokens.
var erc20Spenders = []common.Address{
	chain.Exchange,
	chain.NegRiskExchange,
	chain.NegRiskAdapter,
	chain.ConditionalTokens,
}

var erc1155Operators = []common.Address{
	chain.Exchange,
	chain.NegRiskExchange,
	chain.NegRiskAdapter,
}

func (s *SessionService) checkApprovals(ctx context.Context, safe common.Address) (bool, error) {
	for _, spender := range erc20Spenders {
		allowance, err := s.chain.Erc20Allowance(ctx, chain.USDCe, safe, spender)
		if err != nil {
			return false, err
		}
		if allowance.Cmp(approvedThreshold) < 0 {
			return false, nil
		}
	}
	for _, operator := range erc1155Operators {
		ok, err := s.chain.IsApprovedForAll(ctx, chain.ConditionalTokens, safe, operator)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func approvalBatch() ([]relaytypes.Transaction, error) {
	txs := make([]relaytypes.Transaction, 0, len(erc20Spenders)+len(erc1155Operators))
	for _, spender := range erc20Spenders {
		data, err := chain.PackApprove(spender, chain.MaxUint256)
		if err != nil {
			return nil, err
		}
		txs = append(txs, relay.Tx(chain.USDCe.Hex(), data))
	}
	for _, operator := range erc1155Operators {
		data, err := chain.PackSetApprovalForAll(operator, true)
		if err != nil {
			return nil, err
		}
		txs = append(txs, relay.Tx(chain.ConditionalTokens.Hex(), data))
	}
	return txs, nil
}

// SetApprovals verifies the full approval surface on chain and, if any
// pair is missing, submits every pair as one relay batch. Re-submitting an
// existing approval is harmless; a partial batch is not.
func (s *SessionService) SetApprovals(ctx context.Context, privateKeyHex string) (*model.ApprovalsResponse, error) {
	clients, sess, release, err := s.begin(ctx, privateKeyHex)
	if err != nil {
		return nil, err
	}
	defer release()

	allSet, err := s.checkApprovals(ctx, clients.Safe)
	if err != nil {
		metrics.StageRuns.WithLabelValues("approvals", "error").Inc()
		return nil, apperrors.NewExecution("failed to read approvals", err)
	}
	if allSet {
		sess.Approved = true
		sess.Stages["approvals"] = model.StageDone
		if err := s.save(ctx, sess); err != nil {
			return nil, err
		}
		s.normalizeCollateral(ctx, clients, sess)
		metrics.StageRuns.WithLabelValues("approvals", "ok").Inc()
		return &model.ApprovalsResponse{Success: true, AlreadyApproved: true}, nil
	}

	txs, err := approvalBatch()
	if err != nil {
		return nil, apperrors.Wrap(err)
	}

	logger.Info("submitting approval batch", "safe", clients.Safe.Hex(), "calls", len(txs))
	txID, execErr := clients.Relay.Execute(ctx, txs, "Setting trading approvals")
	if execErr != nil {
		if relay.IsTimeout(execErr) {
			metrics.RelaySubmissions.WithLabelValues("approvals", "timeout").Inc()
			metrics.StageRuns.WithLabelValues("approvals", "error").Inc()
			return nil, apperrors.NewRelayTimeout(execErr)
		}
		// The batch may still have landed; check once more before failing.
		if allSet, checkErr := s.checkApprovals(ctx, clients.Safe); checkErr == nil && allSet {
			sess.Approved = true
			sess.Stages["approvals"] = model.StageDone
			if err := s.save(ctx, sess); err != nil {
				return nil, err
			}
			s.normalizeCollateral(ctx, clients, sess)
			metrics.StageRuns.WithLabelValues("approvals", "ok").Inc()
			return &model.ApprovalsResponse{Success: true, AlreadyApproved: true}, nil
		}
		metrics.RelaySubmissions.WithLabelValues("approvals", "error").Inc()
		metrics.StageRuns.WithLabelValues("approvals", "error").Inc()
		return nil, apperrors.NewExecution("approval batch failed", execErr)
	}
	metrics.RelaySubmissions.WithLabelValues("approvals", "ok").Inc()

	sess.Approved = true
	sess.Stages["approvals"] = model.StageDone
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	s.normalizeCollateral(ctx, clients, sess)

	metrics.StageRuns.WithLabelValues("approvals", "ok").Inc()
	return &model.ApprovalsResponse{Success: true, TransactionHash: txID}, nil
}
