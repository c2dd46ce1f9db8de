// Package database opens the collector's PostgreSQL connection pool and
// bootstraps the collector database through an administrative database.
package database
