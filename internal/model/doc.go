// Package model defines shared data types used across the collector.
//
// Conventions:
//   - Markets are identified by Code (EXCHANGE_BASE_QUOTE, e.g. "KRAKEN_BTC_USD")
//   - Cursors are exchange-supplied, totally ordered within one market
//   - Trade IDs: uuid.UUID derived from (market, page cursor, position in page)
//   - Timestamps: time.Time in UTC
package model
