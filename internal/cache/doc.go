// Package cache stores raw exchange pages on local disk so a market can be
// re-synchronized without calling the exchange again.
//
// Layout: <root>/<market code>/<year>/<month>/<day>/<from cursor>, where the
// date is the UTC date of the cursor the page was requested from. Entries
// are immutable once written; storing the same key again rewrites identical
// bytes. Directory trees are partitioned by market code, so concurrent
// market loops never write the same path.
package cache
