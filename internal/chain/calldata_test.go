package chain

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackApproveSelector(t *testing.T) {
	data, err := PackApprove(Exchange, MaxUint256)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(data, "0x095ea7b3"), "approve selector")
	// selector + spender + amount
	assert.Len(t, data, 2+8+64+64)
	// MaxUint256 encodes as all-f words
	assert.True(t, strings.HasSuffix(data, strings.Repeat("f", 64)))
}

func TestPackSetApprovalForAllSelector(t *testing.T) {
	data, err := PackSetApprovalForAll(NegRiskAdapter, true)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(data, "0xa22cb465"), "setApprovalForAll selector")
	assert.True(t, strings.HasSuffix(data, "1"), "approved flag")
}

func TestPackSplitAndMergeAreSymmetric(t *testing.T) {
	condition := common.HexToHash("0x1234000000000000000000000000000000000000000000000000000000000000")
	amount := big.NewInt(5_000_000)

	split, err := PackSplitPosition(condition, amount)
	require.NoError(t, err)
	merge, err := PackMergePositions(condition, amount)
	require.NoError(t, err)

	// Same argument layout, different selector.
	assert.NotEqual(t, split[:10], merge[:10])
	assert.Equal(t, split[10:], merge[10:])
}

func TestPackExactInputSingleSelector(t *testing.T) {
	data, err := PackExactInputSingle(SwapParams{
		TokenIn:   NativeUSDC,
		TokenOut:  USDCe,
		Fee:       big.NewInt(100),
		Recipient: common.HexToAddress("0x0000000000000000000000000000000000000001"),
		Deadline:  big.NewInt(1_700_000_000),
		AmountIn:  big.NewInt(1_000_000),
		MinOut:    big.NewInt(990_000),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(data, "0x414bf389"), "exactInputSingle selector")
}

func TestPackRedeemPositions(t *testing.T) {
	condition := common.HexToHash("0xabcd000000000000000000000000000000000000000000000000000000000000")
	data, err := PackRedeemPositions(condition, []*big.Int{big.NewInt(1), big.NewInt(2)})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(data, "0x"))
	assert.Greater(t, len(data), 10)
}
