package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Reader is the read-only chain surface the lifecycle stages need. The
// gateway never sends transactions directly; all writes go through the relay.
type Reader interface {
	CodeAt(ctx context.Context, addr common.Address) ([]byte, error)
	Erc20Balance(ctx context.Context, token, owner common.Address) (*big.Int, error)
	Erc20Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	IsApprovedForAll(ctx context.Context, token, owner, operator common.Address) (bool, error)
}

type Client struct {
	eth *ethclient.Client
}

func NewClient(rpcURL string) (*Client, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return &Client{eth: eth}, nil
}

func (c *Client) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	return c.eth.CodeAt(ctx, addr, nil)
}

func (c *Client) Erc20Balance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, err
	}
	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call balanceOf: %w", err)
	}
	var balance *big.Int
	if err := erc20ABI.UnpackIntoInterface(&balance, "balanceOf", raw); err != nil {
		return nil, err
	}
	return balance, nil
}

func (c *Client) Erc20Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call allowance: %w", err)
	}
	var allowance *big.Int
	if err := erc20ABI.UnpackIntoInterface(&allowance, "allowance", raw); err != nil {
		return nil, err
	}
	return allowance, nil
}

func (c *Client) IsApprovedForAll(ctx context.Context, token, owner, operator common.Address) (bool, error) {
	data, err := erc1155ABI.Pack("isApprovedForAll", owner, operator)
	if err != nil {
		return false, err
	}
	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("call isApprovedForAll: %w", err)
	}
	var approved bool
	if err := erc1155ABI.UnpackIntoInterface(&approved, "isApprovedForAll", raw); err != nil {
		return false, err
	}
	return approved, nil
}
