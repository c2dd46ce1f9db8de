// Package kraken implements the exchange adapter for the Kraken public REST API.
//
// Endpoints:
//   - GET /0/public/AssetPairs: tradable pairs, used to resolve tracked markets
//   - GET /0/public/Trades?pair=<pair>&since=<cursor>: up to 1000 trades after cursor
//
// Cursors are nanosecond Unix timestamps as returned in result.last.
// Kraken asks public clients to keep to roughly one call per several seconds,
// pacing is done by the caller through the rate limiter.
package kraken
