package exchange

import (
	"context"
	"time"

	"github.com/dReserve/FAT/internal/instrument"
	"github.com/dReserve/FAT/internal/model"
)

// Page is one response from the exchange's trade history endpoint.
type Page struct {
	Raw    []byte        // Response body as received, byte-for-byte
	Trades []model.Trade // Parsed trades, oldest first
	Next   model.Cursor  // Cursor to request the following page with
}

// Len returns the number of trades in the page.
func (p Page) Len() int {
	return len(p.Trades)
}

// Adapter is implemented once per supported exchange.
type Adapter interface {
	// Code returns the exchange code, e.g. "KRAKEN".
	Code() string

	// PageSize is the nominal number of trades in a full page.
	PageSize() int

	// Markets returns the exchange's markets whose base and quote are both
	// among instruments.
	Markets(ctx context.Context, instruments []instrument.Instrument) ([]model.Market, error)

	// FetchTrades requests trades after from. Callers must pace calls with
	// the rate limiter.
	FetchTrades(ctx context.Context, m model.Market, from model.Cursor) (Page, error)

	// ParseTrades decodes a raw page previously returned by FetchTrades.
	ParseTrades(m model.Market, from model.Cursor, raw []byte) (Page, error)

	// CursorTime maps a cursor to the time of the history position it marks.
	CursorTime(c model.Cursor) time.Time
}
