// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Pages fetched from exchanges and served from the cache
//   - Trades inserted per market
//   - Cache writes, including coalesced pages and write failures
//   - Failed sync iterations by error kind
//   - Rate limiter wait time per exchange
package metrics
