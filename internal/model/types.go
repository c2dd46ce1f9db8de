package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// tradeNamespace seeds deterministic trade IDs.
var tradeNamespace = uuid.MustParse("5b0f7c1e-6a43-4d0e-9f3c-2f1d8a7e4b10")

// Market represents a tradable pair on an exchange.
type Market struct {
	Exchange string // Exchange code (e.g., "KRAKEN")
	Base     string // Base instrument code (e.g., "BTC")
	Quote    string // Quote instrument code (e.g., "USD")
	APIName  string // Exchange-native pair name (e.g., "XXBTZUSD")
	Code     string // Globally unique code (e.g., "KRAKEN_BTC_USD")
}

// NewMarket builds a Market and derives its code.
func NewMarket(exchange, base, quote, apiName string) Market {
	return Market{
		Exchange: exchange,
		Base:     base,
		Quote:    quote,
		APIName:  apiName,
		Code:     MarketCode(exchange, base, quote),
	}
}

// MarketCode joins exchange, base and quote into a market code.
func MarketCode(exchange, base, quote string) string {
	return strings.ToUpper(exchange + "_" + base + "_" + quote)
}

func (m Market) String() string {
	return m.Code
}

// Trade represents a single executed trade.
type Trade struct {
	ID      uuid.UUID // Primary key, see TradeID
	Price   float64
	Volume  float64
	Time    time.Time
	IsBuy   bool // true = buy taker, false = sell taker
	IsLimit bool // true = limit order, false = market order
}

// TradeID returns the deterministic ID of the trade at position index of the
// page fetched from cursor from. The same page always yields the same IDs.
func TradeID(marketCode string, from Cursor, index int) uuid.UUID {
	name := marketCode + "/" + string(from) + "/" + strconv.Itoa(index)
	return uuid.NewSHA1(tradeNamespace, []byte(name))
}

// SyncState is the persisted synchronization progress of one market.
//
// LastCached never exceeds LastStored.
type SyncState struct {
	Code       string
	LastStored Cursor // Highest cursor whose trades are committed
	LastCached Cursor // Highest cursor whose raw page is cached on disk
	Uncached   int    // Stored trades not yet covered by a cache entry
}

// NewSyncState returns the state of a market that has never been synced.
func NewSyncState(code string) SyncState {
	return SyncState{
		Code:       code,
		LastStored: StartCursor,
		LastCached: StartCursor,
	}
}
