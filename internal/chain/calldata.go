package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Calldata builders for relay-executed batches. Everything returns the
// 0x-prefixed hex form the relayer transaction type expects.

func PackApprove(spender common.Address, amount *big.Int) (string, error) {
	data, err := erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(data), nil
}

func PackSetApprovalForAll(operator common.Address, approved bool) (string, error) {
	data, err := erc1155ABI.Pack("setApprovalForAll", operator, approved)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(data), nil
}

// PackSplitPosition mints a full outcome set from collateral. Partition is
// always [1, 2] for binary markets; parentCollectionId stays zero.
func PackSplitPosition(conditionID common.Hash, amount *big.Int) (string, error) {
	data, err := ctfABI.Pack("splitPosition",
		USDCe,
		common.Hash{},
		conditionID,
		[]*big.Int{big.NewInt(1), big.NewInt(2)},
		amount,
	)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(data), nil
}

// PackMergePositions burns a full outcome set back into collateral.
func PackMergePositions(conditionID common.Hash, amount *big.Int) (string, error) {
	data, err := ctfABI.Pack("mergePositions",
		USDCe,
		common.Hash{},
		conditionID,
		[]*big.Int{big.NewInt(1), big.NewInt(2)},
		amount,
	)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(data), nil
}

func PackRedeemPositions(conditionID common.Hash, indexSets []*big.Int) (string, error) {
	data, err := ctfABI.Pack("redeemPositions",
		USDCe,
		common.Hash{},
		conditionID,
		indexSets,
	)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(data), nil
}

// SwapParams describes one exactInputSingle swap through the router.
type SwapParams struct {
	TokenIn   common.Address
	TokenOut  common.Address
	Fee       *big.Int
	Recipient common.Address
	Deadline  *big.Int
	AmountIn  *big.Int
	MinOut    *big.Int
}

func PackExactInputSingle(p SwapParams) (string, error) {
	params := struct {
		TokenIn           common.Address
		TokenOut          common.Address
		Fee               *big.Int
		Recipient         common.Address
		Deadline          *big.Int
		AmountIn          *big.Int
		AmountOutMinimum  *big.Int
		SqrtPriceLimitX96 *big.Int
	}{
		TokenIn:           p.TokenIn,
		TokenOut:          p.TokenOut,
		Fee:               p.Fee,
		Recipient:         p.Recipient,
		Deadline:          p.Deadline,
		AmountIn:          p.AmountIn,
		AmountOutMinimum:  p.MinOut,
		SqrtPriceLimitX96: big.NewInt(0),
	}
	data, err := swapRouterABI.Pack("exactInputSingle", params)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(data), nil
}
