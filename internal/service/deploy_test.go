package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	relaytypes "github.com/GoPolymarket/go-builder-relayer-client/pkg/types"
	"github.com/PrecedenceMarkets/lexgate/internal/model"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeploySafeAlreadyOnChain(t *testing.T) {
	env := newTestEnv()
	env.chain.setCode(env.safe, []byte{0x60, 0x80})

	resp, err := env.svc.DeploySafe(context.Background(), testKeyA)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.True(t, resp.AlreadyDeployed)
	assert.Equal(t, env.safeHex, resp.SafeAddress)
	assert.Zero(t, env.relay.callCount(), "deployed wallet must not hit the relayer")

	sess, found, err := env.store.Load(context.Background(), env.eoa.Hex())
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, sess.Deployed)
}

func TestDeploySafeSubmitsThroughRelay(t *testing.T) {
	env := newTestEnv()
	env.relay.txID = "0xdeadbeef"
	env.relay.onExecute = func(_ []relaytypes.Transaction) {
		env.chain.setCode(env.safe, []byte{0x60})
	}

	resp, err := env.svc.DeploySafe(context.Background(), testKeyA)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.False(t, resp.AlreadyDeployed)
	assert.Equal(t, "0xdeadbeef", resp.TransactionHash)

	require.Equal(t, 1, env.relay.callCount())
	call := env.relay.calls[0]
	require.Len(t, call.txs, 1)
	assert.Equal(t, env.safeHex, call.txs[0].To)

	sess, _, _ := env.store.Load(context.Background(), env.eoa.Hex())
	assert.True(t, sess.Deployed, "post-submit code check confirms deployment")
}

func TestDeploySafeUnconfirmedSubmitStaysPending(t *testing.T) {
	env := newTestEnv()
	// Relay accepts the batch but the code never shows up on chain.
	env.relay.txID = "0xpending"

	resp, err := env.svc.DeploySafe(context.Background(), testKeyA)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "0xpending", resp.TransactionHash)

	sess, found, err := env.store.Load(context.Background(), env.eoa.Hex())
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, sess.Deployed, "deployment is not confirmed")
	assert.Equal(t, model.StagePending, sess.Stages["deploy"], "stage stays pending until code is seen")
}

func TestDeploySafeAlreadyDeployedRelayErrorIsSuccess(t *testing.T) {
	env := newTestEnv()
	env.relay.err = errors.New("relayer: safe already exists for this owner")

	resp, err := env.svc.DeploySafe(context.Background(), testKeyA)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.True(t, resp.AlreadyDeployed)
}

func TestDeploySafeRelayTimeout(t *testing.T) {
	env := newTestEnv()
	env.relay.err = errors.New("request timeout waiting for relayer")

	_, err := env.svc.DeploySafe(context.Background(), testKeyA)
	require.Error(t, err)

	assert.True(t, apperrors.IsType(err, apperrors.ErrRelayTimeout))
	appErr := err.(*apperrors.AppError)
	assert.Equal(t, 503, appErr.HTTPStatus)
	assert.Contains(t, appErr.Suggestion, "Retry")
}

func TestDeploySafeInvalidKey(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.DeploySafe(context.Background(), "not-a-key")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrValidation))
}

func TestDeploySafeConcurrentCallsSubmitOnce(t *testing.T) {
	env := newTestEnv()
	env.relay.onExecute = func(_ []relaytypes.Transaction) {
		// First run lands the deployment; the serialized second run must
		// observe it on chain and skip its own submission.
		env.chain.setCode(env.safe, []byte{0x60})
	}

	var wg sync.WaitGroup
	results := make([]*struct {
		already bool
		err     error
	}, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := env.svc.DeploySafe(context.Background(), testKeyA)
			results[i] = &struct {
				already bool
				err     error
			}{err: err}
			if resp != nil {
				results[i].already = resp.AlreadyDeployed
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.NoError(t, r.err)
	}
	assert.Equal(t, 1, env.relay.callCount(), "only one deployment batch for concurrent callers")
}
