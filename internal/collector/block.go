package collector

import "github.com/dReserve/FAT/internal/model"

// TradeBlock is one page of trades for a market, fetched or loaded from the
// cache starting at From.
type TradeBlock struct {
	Market    model.Market
	From      model.Cursor
	Raw       []byte // Exchange response bytes, byte-for-byte
	Trades    []model.Trade
	Next      model.Cursor // Cursor to continue from
	FromCache bool
}

// Len returns the number of trades in the block.
func (b TradeBlock) Len() int {
	return len(b.Trades)
}

// Advanced reports whether the block moves the cursor past From.
func (b TradeBlock) Advanced() bool {
	return b.From.Less(b.Next)
}
