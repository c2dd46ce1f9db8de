package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dReserve/FAT/internal/model"
	"github.com/dReserve/FAT/internal/store"
)

// ErrPersistence marks failures of the database behind a Ledger.
var ErrPersistence = errors.New("persistence failure")

// Schema names the tables the ledger writes to.
type Schema struct {
	StateTable       string // One SyncState row per market
	TradeTablePrefix string // Trades go to <prefix><lowercase market code>
}

// TradeTable returns the trades table of a market.
func (s Schema) TradeTable(m model.Market) string {
	return s.TradeTablePrefix + strings.ToLower(m.Code)
}

// Ledger persists trades and per-market sync progress.
type Ledger interface {
	// Init creates the sync state table if needed.
	Init(ctx context.Context) error

	// EnsureMarket creates the market's trades table and state row if they
	// are missing, and returns the stored state.
	EnsureMarket(ctx context.Context, m model.Market) (model.SyncState, error)

	// Commit inserts the block's trades and records st.LastStored and
	// st.Uncached, atomically.
	Commit(ctx context.Context, b TradeBlock, st model.SyncState) error

	// SaveCached records st.LastCached and st.Uncached.
	SaveCached(ctx context.Context, st model.SyncState) error

	Close()
}

var tradeColumns = []string{"id", "price", "volume", "time", "is_buy", "is_limit"}

// DBLedger is a Ledger over a store.Store.
type DBLedger struct {
	db     store.Store
	schema Schema
	logger *slog.Logger
}

// NewLedger creates a ledger writing to db. Close closes db.
func NewLedger(db store.Store, schema Schema, logger *slog.Logger) *DBLedger {
	if logger == nil {
		logger = slog.Default()
	}
	return &DBLedger{db: db, schema: schema, logger: logger}
}

func (l *DBLedger) Init(ctx context.Context) error {
	_, err := l.db.Execute(ctx, `CREATE TABLE IF NOT EXISTS `+store.Quote(l.schema.StateTable)+` (
		code               VARCHAR(32) PRIMARY KEY,
		last_stored_cursor TEXT NOT NULL,
		last_cached_cursor TEXT NOT NULL,
		uncached_count     INT  NOT NULL DEFAULT 0
	)`)
	if err != nil {
		return fmt.Errorf("%w: create state table: %w", ErrPersistence, err)
	}
	return nil
}

func (l *DBLedger) EnsureMarket(ctx context.Context, m model.Market) (model.SyncState, error) {
	table := l.schema.TradeTable(m)

	exists, err := l.db.TableExists(ctx, table)
	if err != nil {
		return model.SyncState{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !exists {
		_, err := l.db.Execute(ctx, `CREATE TABLE IF NOT EXISTS `+store.Quote(table)+` (
			id       UUID        PRIMARY KEY,
			price    FLOAT8      NOT NULL,
			volume   FLOAT8      NOT NULL,
			time     TIMESTAMPTZ NOT NULL,
			is_buy   BOOL        NOT NULL,
			is_limit BOOL        NOT NULL
		)`)
		if err != nil {
			return model.SyncState{}, fmt.Errorf("%w: create table %s: %w", ErrPersistence, table, err)
		}
		l.logger.Info("created trades table", "market", m.Code, "table", table)
	}

	start := model.NewSyncState(m.Code)
	_, err = l.db.Execute(ctx,
		`INSERT INTO `+store.Quote(l.schema.StateTable)+`
			(code, last_stored_cursor, last_cached_cursor, uncached_count)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (code) DO NOTHING`,
		m.Code, string(start.LastStored), string(start.LastCached),
	)
	if err != nil {
		return model.SyncState{}, fmt.Errorf("%w: insert state %s: %w", ErrPersistence, m.Code, err)
	}

	var stored, cached string
	st := model.SyncState{Code: m.Code}
	err = l.db.FetchRow(ctx,
		`SELECT last_stored_cursor, last_cached_cursor, uncached_count
		FROM `+store.Quote(l.schema.StateTable)+` WHERE code = $1`,
		m.Code,
	).Scan(&stored, &cached, &st.Uncached)
	if err != nil {
		return model.SyncState{}, fmt.Errorf("%w: read state %s: %w", ErrPersistence, m.Code, err)
	}
	st.LastStored = model.Cursor(stored)
	st.LastCached = model.Cursor(cached)
	return st, nil
}

func (l *DBLedger) Commit(ctx context.Context, b TradeBlock, st model.SyncState) error {
	rows := make([][]any, len(b.Trades))
	for i, t := range b.Trades {
		rows[i] = []any{t.ID, t.Price, t.Volume, t.Time, t.IsBuy, t.IsLimit}
	}

	err := l.db.RunTransaction(ctx, func(q store.Querier) error {
		if _, err := q.BulkInsert(ctx, l.schema.TradeTable(b.Market), tradeColumns, rows); err != nil {
			return err
		}
		n, err := q.Execute(ctx,
			`UPDATE `+store.Quote(l.schema.StateTable)+`
			SET last_stored_cursor = $2, uncached_count = $3
			WHERE code = $1`,
			st.Code, string(st.LastStored), st.Uncached,
		)
		if err != nil {
			return fmt.Errorf("update state: %w", err)
		}
		if n != 1 {
			return fmt.Errorf("update state: no row for %s", st.Code)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: commit %s: %w", ErrPersistence, st.Code, err)
	}
	return nil
}

func (l *DBLedger) SaveCached(ctx context.Context, st model.SyncState) error {
	_, err := l.db.Execute(ctx,
		`UPDATE `+store.Quote(l.schema.StateTable)+`
		SET last_cached_cursor = $2, uncached_count = $3
		WHERE code = $1`,
		st.Code, string(st.LastCached), st.Uncached,
	)
	if err != nil {
		return fmt.Errorf("%w: save cache progress %s: %w", ErrPersistence, st.Code, err)
	}
	return nil
}

func (l *DBLedger) Close() {
	l.db.Close()
}
