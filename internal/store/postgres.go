package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// conn is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

type querier struct {
	c conn
}

func (q querier) Execute(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := q.c.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q querier) FetchRow(ctx context.Context, sql string, args ...any) Row {
	return q.c.QueryRow(ctx, sql, args...)
}

func (q querier) BulkInsert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := q.c.CopyFrom(ctx, Identifier(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	querier
	pool *pgxpool.Pool
}

// NewPostgres wraps an open pool. Close releases the pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{querier: querier{c: pool}, pool: pool}
}

// RunTransaction runs fn inside a transaction on a pooled connection.
func (p *Postgres) RunTransaction(ctx context.Context, fn func(Querier) error) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(querier{c: tx})
	})
}

// TableExists resolves name with to_regclass, so it follows the search path
// unless the name is schema-qualified.
func (p *Postgres) TableExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, "SELECT to_regclass($1::text) IS NOT NULL", Quote(name)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return exists, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}
