package market

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Level is a single price level.
type Level struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// Book holds the live in-memory book for one outcome token.
// Bids sort high to low, asks low to high.
type Book struct {
	TokenID     string
	Bids        []Level
	Asks        []Level
	LastUpdated time.Time
	mu          sync.RWMutex
}

func NewBook(tokenID string) *Book {
	return &Book{
		TokenID: tokenID,
		Bids:    make([]Level, 0),
		Asks:    make([]Level, 0),
	}
}

// Update applies one price/size change. Size zero removes the level.
func (b *Book) Update(side string, priceStr, sizeStr string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return err
	}
	size, err := decimal.NewFromString(sizeStr)
	if err != nil {
		return err
	}

	if side == "BUY" {
		updateLevel(&b.Bids, price, size, true)
	} else {
		updateLevel(&b.Asks, price, size, false)
	}
	b.LastUpdated = time.Now()
	return nil
}

func updateLevel(levels *[]Level, price, size decimal.Decimal, descending bool) {
	// Linear scan; venue books are sparse enough that slices win over trees.
	idx := -1
	for i, l := range *levels {
		if l.Price.Equal(price) {
			idx = i
			break
		}
	}

	if size.IsZero() {
		if idx != -1 {
			*levels = append((*levels)[:idx], (*levels)[idx+1:]...)
		}
		return
	}

	if idx != -1 {
		(*levels)[idx].Size = size
		return
	}

	*levels = append(*levels, Level{Price: price, Size: size})
	if descending {
		sort.Slice(*levels, func(i, j int) bool {
			return (*levels)[i].Price.GreaterThan((*levels)[j].Price)
		})
	} else {
		sort.Slice(*levels, func(i, j int) bool {
			return (*levels)[i].Price.LessThan((*levels)[j].Price)
		})
	}
}

// Snapshot returns copies of both sides.
func (b *Book) Snapshot() (bids, asks []Level) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bids = make([]Level, len(b.Bids))
	copy(bids, b.Bids)
	asks = make([]Level, len(b.Asks))
	copy(asks, b.Asks)
	return
}

// Mid returns the midpoint of best bid and ask, or false when either side
// is empty.
func (b *Book) Mid() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.Bids) == 0 || len(b.Asks) == 0 {
		return decimal.Zero, false
	}
	two := decimal.NewFromInt(2)
	return b.Bids[0].Price.Add(b.Asks[0].Price).Div(two), true
}
