package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dReserve/FAT/internal/cache"
	"github.com/dReserve/FAT/internal/exchange"
	"github.com/dReserve/FAT/internal/instrument"
	"github.com/dReserve/FAT/internal/model"
	"github.com/dReserve/FAT/internal/store"
)

// fakeExchange serves trades 1..available, one cursor unit per trade.
type fakeExchange struct {
	mu         sync.Mutex
	code       string
	pageSize   int
	available  int
	markets    []model.Market
	marketsErr error
	errs       []error // Returned by successive fetches before serving pages
	fetchFroms []model.Cursor
}

type fakePage struct {
	Trades []int64 `json:"trades"`
	Last   string  `json:"last"`
}

func newFakeExchange(pageSize, available int) *fakeExchange {
	return &fakeExchange{code: "FAKE", pageSize: pageSize, available: available}
}

func (f *fakeExchange) Code() string  { return f.code }
func (f *fakeExchange) PageSize() int { return f.pageSize }

func (f *fakeExchange) Markets(ctx context.Context, _ []instrument.Instrument) ([]model.Market, error) {
	return f.markets, f.marketsErr
}

func (f *fakeExchange) setAvailable(n int) {
	f.mu.Lock()
	f.available = n
	f.mu.Unlock()
}

func (f *fakeExchange) fetched() []model.Cursor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Cursor(nil), f.fetchFroms...)
}

func (f *fakeExchange) FetchTrades(ctx context.Context, m model.Market, from model.Cursor) (exchange.Page, error) {
	f.mu.Lock()
	f.fetchFroms = append(f.fetchFroms, from)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		f.mu.Unlock()
		return exchange.Page{}, err
	}
	start, _ := strconv.ParseInt(string(from), 10, 64)
	page := fakePage{Last: string(from)}
	for p := start + 1; p <= int64(f.available) && len(page.Trades) < f.pageSize; p++ {
		page.Trades = append(page.Trades, p)
	}
	f.mu.Unlock()

	if n := len(page.Trades); n > 0 {
		page.Last = strconv.FormatInt(page.Trades[n-1], 10)
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return exchange.Page{}, err
	}
	return f.ParseTrades(m, from, raw)
}

func (f *fakeExchange) ParseTrades(m model.Market, from model.Cursor, raw []byte) (exchange.Page, error) {
	var page fakePage
	if err := json.Unmarshal(raw, &page); err != nil {
		return exchange.Page{}, exchange.NewError(exchange.Fatal, f.code, "trades", err)
	}
	trades := make([]model.Trade, len(page.Trades))
	for i, p := range page.Trades {
		trades[i] = model.Trade{
			ID:     model.TradeID(m.Code, from, i),
			Price:  float64(p),
			Volume: 1,
			Time:   time.Unix(0, p).UTC(),
			IsBuy:  p%2 == 0,
		}
	}
	return exchange.Page{Raw: raw, Trades: trades, Next: model.Cursor(page.Last)}, nil
}

func (f *fakeExchange) CursorTime(c model.Cursor) time.Time {
	n, _ := strconv.ParseInt(string(c), 10, 64)
	return time.Unix(0, n).UTC()
}

// memLedger keeps trades and states in memory and rejects duplicate trades
// like a primary key would.
type memLedger struct {
	mu         sync.Mutex
	states     map[string]model.SyncState
	trades     map[uuid.UUID]model.Trade
	commits    []TradeBlock
	initErr    error
	commitErrs []error
	saveErrs   []error
	closed     bool
}

func newMemLedger() *memLedger {
	return &memLedger{
		states: make(map[string]model.SyncState),
		trades: make(map[uuid.UUID]model.Trade),
	}
}

func (l *memLedger) Init(ctx context.Context) error { return l.initErr }

func (l *memLedger) EnsureMarket(ctx context.Context, m model.Market) (model.SyncState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.states[m.Code]
	if !ok {
		st = model.NewSyncState(m.Code)
		l.states[m.Code] = st
	}
	return st, nil
}

func (l *memLedger) Commit(ctx context.Context, b TradeBlock, st model.SyncState) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.commitErrs) > 0 {
		err := l.commitErrs[0]
		l.commitErrs = l.commitErrs[1:]
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	for _, t := range b.Trades {
		if _, dup := l.trades[t.ID]; dup {
			return fmt.Errorf("%w: duplicate trade %s", ErrPersistence, t.ID)
		}
	}
	for _, t := range b.Trades {
		l.trades[t.ID] = t
	}
	cur := l.states[st.Code]
	cur.Code = st.Code
	cur.LastStored = st.LastStored
	cur.Uncached = st.Uncached
	l.states[st.Code] = cur
	l.commits = append(l.commits, b)
	return nil
}

func (l *memLedger) SaveCached(ctx context.Context, st model.SyncState) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.saveErrs) > 0 {
		err := l.saveErrs[0]
		l.saveErrs = l.saveErrs[1:]
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	cur := l.states[st.Code]
	cur.LastCached = st.LastCached
	cur.Uncached = st.Uncached
	l.states[st.Code] = cur
	return nil
}

func (l *memLedger) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

func (l *memLedger) state(code string) model.SyncState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[code]
}

func (l *memLedger) tradeIDs() map[uuid.UUID]bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make(map[uuid.UUID]bool, len(l.trades))
	for id := range l.trades {
		ids[id] = true
	}
	return ids
}

func (l *memLedger) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// flakyCache fails writes while failStore is set.
type flakyCache struct {
	*cache.Disk
	failStore atomic.Bool
}

func (c *flakyCache) Store(m model.Market, from model.Cursor, clock cache.CursorClock, raw []byte) error {
	if c.failStore.Load() {
		return &cache.WriteError{Path: c.Path(m, from, clock), Err: fs.ErrPermission}
	}
	return c.Disk.Store(m, from, clock, raw)
}

// countEntries returns the cache files stored for a market.
func countEntries(t *testing.T, d *cache.Disk, m model.Market) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(d.MarketDir(m), func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !e.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

// recordingStore records statements and serves a fixed state row.
type recordingStore struct {
	mu        sync.Mutex
	execs     []string
	bulk      []bulkCall
	tables    map[string]bool
	row       []any
	execErr   error
	bulkErr   error
	txs       int
	rollbacks int
	closed    bool
}

type bulkCall struct {
	table   string
	columns []string
	rows    [][]any
}

func newRecordingStore() *recordingStore {
	return &recordingStore{tables: make(map[string]bool)}
}

func (r *recordingStore) Execute(ctx context.Context, sql string, args ...any) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.execs = append(r.execs, sql)
	if r.execErr != nil {
		return 0, r.execErr
	}
	return 1, nil
}

func (r *recordingStore) FetchRow(ctx context.Context, sql string, args ...any) store.Row {
	return fakeRow{vals: r.row}
}

func (r *recordingStore) BulkInsert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bulkErr != nil {
		return 0, r.bulkErr
	}
	r.bulk = append(r.bulk, bulkCall{table: table, columns: columns, rows: rows})
	return int64(len(rows)), nil
}

func (r *recordingStore) RunTransaction(ctx context.Context, fn func(store.Querier) error) error {
	r.mu.Lock()
	r.txs++
	r.mu.Unlock()

	err := fn(r)
	if err != nil {
		r.mu.Lock()
		r.rollbacks++
		r.mu.Unlock()
	}
	return err
}

func (r *recordingStore) TableExists(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tables[name], nil
}

func (r *recordingStore) Ping(ctx context.Context) error { return nil }

func (r *recordingStore) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

type fakeRow struct {
	vals []any
}

func (f fakeRow) Scan(dest ...any) error {
	if len(dest) != len(f.vals) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(f.vals))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = f.vals[i].(string)
		case *int:
			*p = f.vals[i].(int)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}
