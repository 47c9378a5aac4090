package market

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookOrdering(t *testing.T) {
	book := NewBook("70001")

	require.NoError(t, book.Update("BUY", "0.40", "100"))
	require.NoError(t, book.Update("BUY", "0.45", "50"))
	require.NoError(t, book.Update("SELL", "0.55", "30"))
	require.NoError(t, book.Update("SELL", "0.50", "20"))

	bids, asks := book.Snapshot()
	require.Len(t, bids, 2)
	require.Len(t, asks, 2)

	assert.True(t, bids[0].Price.Equal(decimal.RequireFromString("0.45")), "bids high to low")
	assert.True(t, asks[0].Price.Equal(decimal.RequireFromString("0.50")), "asks low to high")
}

func TestBookZeroSizeRemovesLevel(t *testing.T) {
	book := NewBook("70001")

	require.NoError(t, book.Update("BUY", "0.40", "100"))
	require.NoError(t, book.Update("BUY", "0.40", "0"))

	bids, _ := book.Snapshot()
	assert.Empty(t, bids)
}

func TestBookMid(t *testing.T) {
	book := NewBook("70001")

	_, ok := book.Mid()
	assert.False(t, ok, "empty book has no mid")

	require.NoError(t, book.Update("BUY", "0.40", "10"))
	_, ok = book.Mid()
	assert.False(t, ok, "one-sided book has no mid")

	require.NoError(t, book.Update("SELL", "0.50", "10"))
	mid, ok := book.Mid()
	require.True(t, ok)
	assert.True(t, mid.Equal(decimal.RequireFromString("0.45")))
}

func TestBookSnapshotIsCopy(t *testing.T) {
	book := NewBook("70001")
	require.NoError(t, book.Update("BUY", "0.40", "10"))

	bids, _ := book.Snapshot()
	bids[0].Size = decimal.NewFromInt(999)

	fresh, _ := book.Snapshot()
	assert.True(t, fresh[0].Size.Equal(decimal.NewFromInt(10)))
}
