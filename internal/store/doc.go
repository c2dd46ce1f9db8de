// Package store provides the persistence capability the collector writes
// through: single statements, single-row reads, bulk inserts, table existence
// checks and all-or-nothing transactions.
//
// Postgres implements Store over a pgx connection pool. Table names are
// quoted with pgx.Identifier, so callers pass plain (optionally
// schema-qualified) names.
package store
