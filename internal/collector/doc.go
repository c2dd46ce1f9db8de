// Package collector runs the per-market synchronization loops that pull trade
// pages from exchanges, commit them to the database and keep a raw page cache
// on disk.
//
// Each market is synced by its own MarketSync. An iteration fetches the page
// that starts at the market's last stored cursor (from the cache when
// possible, otherwise from the exchange behind the shared rate limiter),
// commits its trades and the new cursor in one transaction, and then updates
// the cache. Full pages are cached as they arrive; partial pages are counted
// and later re-fetched as one full page from the last cached cursor.
//
// The Supervisor resolves markets, prepares their storage, and owns the loops.
package collector
