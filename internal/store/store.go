package store

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Row is a single result row.
type Row interface {
	Scan(dest ...any) error
}

// Querier runs statements on a pool or inside a transaction.
type Querier interface {
	// Execute runs a statement and returns the number of affected rows.
	Execute(ctx context.Context, sql string, args ...any) (int64, error)

	// FetchRow runs a query expected to return at most one row. Errors are
	// deferred until Scan.
	FetchRow(ctx context.Context, sql string, args ...any) Row

	// BulkInsert appends rows to table and returns the number inserted.
	BulkInsert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}

// Store is a Querier that can also run transactions.
type Store interface {
	Querier

	// RunTransaction runs fn in a transaction. The transaction commits when
	// fn returns nil and rolls back otherwise.
	RunTransaction(ctx context.Context, fn func(Querier) error) error

	// TableExists reports whether a table with the given name exists.
	TableExists(ctx context.Context, name string) (bool, error)

	Ping(ctx context.Context) error
	Close()
}

// Identifier splits a possibly schema-qualified table name.
func Identifier(name string) pgx.Identifier {
	return pgx.Identifier(strings.Split(name, "."))
}

// Quote returns name as a quoted SQL identifier safe for statement text.
func Quote(name string) string {
	return Identifier(name).Sanitize()
}
