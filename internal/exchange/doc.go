// Package exchange defines the capability every exchange adapter provides to
// the collector: resolve tracked markets and fetch a page of trades since a
// cursor.
//
// Failures are reported as *FetchError carrying one of a closed set of
// kinds so callers branch on the category, never on message text:
//   - RateLimited: the exchange refused the call for pacing reasons
//   - Transient: network or server-side failure, worth retrying
//   - Fatal: the response could not be understood
package exchange
