package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	relayer "github.com/GoPolymarket/go-builder-relayer-client"
	"github.com/GoPolymarket/go-builder-relayer-client/pkg/signer"
	"github.com/GoPolymarket/go-builder-relayer-client/pkg/types"
)

// Executor submits a batch of calls for gasless execution out of the user's
// Safe. One Execute call is one atomic Safe transaction.
type Executor interface {
	Execute(ctx context.Context, txs []types.Transaction, description string) (string, error)
}

type Client struct {
	inner *relayer.RelayClient
}

// New builds a relay client bound to one user key. Handles are per-session
// and must not be shared across users.
func New(baseURL string, chainID int64, privateKeyHex string, builderCfg *relayer.BuilderConfig) (*Client, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	pkSigner, err := signer.NewPrivateKeySigner(trimmed, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	inner, err := relayer.NewRelayClient(baseURL, chainID, pkSigner, builderCfg, types.RelayerTxSafe)
	if err != nil {
		return nil, fmt.Errorf("failed to create relay client: %w", err)
	}
	return &Client{inner: inner}, nil
}

func (c *Client) Execute(ctx context.Context, txs []types.Transaction, description string) (string, error) {
	resp, err := c.inner.Execute(ctx, txs, description)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", fmt.Errorf("relayer returned nil response")
	}
	return resp.TransactionID, nil
}

// Tx is a convenience constructor for zero-value calls.
func Tx(to string, data string) types.Transaction {
	return types.Transaction{To: to, Data: data, Value: "0"}
}

// IsTimeout reports whether the relayer failed to answer in time, the one
// failure callers may retry verbatim.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded")
}

// IsAlreadyDeployed matches the relayer's rejection of a deploy for a Safe
// that already exists on chain.
func IsAlreadyDeployed(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already deployed") ||
		strings.Contains(msg, "proxy already exists") ||
		strings.Contains(msg, "safe already exists")
}
