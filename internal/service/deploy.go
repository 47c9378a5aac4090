package service

import (
	"context"

	relaytypes "github.com/GoPolymarket/go-builder-relayer-client/pkg/types"
	"github.com/PrecedenceMarkets/lexgate/internal/model"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/apperrors"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/logger"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/metrics"
	"github.com/PrecedenceMarkets/lexgate/internal/relay"
)

// DeploySafe makes sure the user's Safe exists on chain. Deployed state is
// decided by on-chain code, never by the cached flag alone: the cache is a
// hint, the chain is the truth.
func (s *SessionService) DeploySafe(ctx context.Context, privateKeyHex string) (*model.DeployResponse, error) {
	clients, sess, release, err := s.begin(ctx, privateKeyHex)
	if err != nil {
		return nil, err
	}
	defer release()

	safeHex := clients.Safe.Hex()

	code, err := s.chain.CodeAt(ctx, clients.Safe)
	if err != nil {
		metrics.StageRuns.WithLabelValues("deploy", "error").Inc()
		return nil, apperrors.NewExecution("failed to read safe code", err)
	}
	if len(code) > 0 {
		sess.Deployed = true
		sess.Stages["deploy"] = model.StageDone
		if err := s.save(ctx, sess); err != nil {
			return nil, err
		}
		metrics.StageRuns.WithLabelValues("deploy", "ok").Inc()
		return &model.DeployResponse{Success: true, SafeAddress: safeHex, AlreadyDeployed: true}, nil
	}

	logger.Info("deploying safe via relayer", "safe", safeHex)
	txID, execErr := clients.Relay.Execute(ctx,
		[]relaytypes.Transaction{relay.Tx(safeHex, "0x")},
		"Deploying Safe wallet",
	)
	if execErr != nil {
		switch {
		case relay.IsAlreadyDeployed(execErr):
			// Another path won the race; that is success.
			sess.Deployed = true
			sess.Stages["deploy"] = model.StageDone
			if err := s.save(ctx, sess); err != nil {
				return nil, err
			}
			metrics.RelaySubmissions.WithLabelValues("deploy", "ok").Inc()
			metrics.StageRuns.WithLabelValues("deploy", "ok").Inc()
			return &model.DeployResponse{Success: true, SafeAddress: safeHex, AlreadyDeployed: true}, nil
		case relay.IsTimeout(execErr):
			metrics.RelaySubmissions.WithLabelValues("deploy", "timeout").Inc()
			metrics.StageRuns.WithLabelValues("deploy", "error").Inc()
			return nil, apperrors.NewRelayTimeout(execErr)
		default:
			metrics.RelaySubmissions.WithLabelValues("deploy", "error").Inc()
			metrics.StageRuns.WithLabelValues("deploy", "error").Inc()
			return nil, apperrors.NewExecution("safe deployment failed", execErr)
		}
	}
	metrics.RelaySubmissions.WithLabelValues("deploy", "ok").Inc()

	// Confirm against the chain before trusting the relayer's answer. An
	// unconfirmed submit keeps the stage pending so the next run re-checks.
	code, err = s.chain.CodeAt(ctx, clients.Safe)
	if err == nil && len(code) > 0 {
		sess.Deployed = true
		sess.Stages["deploy"] = model.StageDone
	} else {
		sess.Stages["deploy"] = model.StagePending
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	metrics.StageRuns.WithLabelValues("deploy", "ok").Inc()
	logger.Info("safe deployment submitted", "safe", safeHex, "tx", txID)
	return &model.DeployResponse{
		Success:         true,
		SafeAddress:     safeHex,
		TransactionHash: txID,
		AlreadyDeployed: false,
	}, nil
}
