package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dReserve/FAT/internal/cache"
	"github.com/dReserve/FAT/internal/exchange"
	"github.com/dReserve/FAT/internal/metrics"
	"github.com/dReserve/FAT/internal/model"
)

// PageCache stores raw trade pages keyed by market and start cursor.
type PageCache interface {
	Load(m model.Market, from model.Cursor, clock cache.CursorClock) ([]byte, error)
	Store(m model.Market, from model.Cursor, clock cache.CursorClock, raw []byte) error
	EnsureMarket(m model.Market) error
}

// Limiter spaces calls to an exchange.
type Limiter interface {
	Wait(ctx context.Context, exchange string) error
}

// State is the phase a MarketSync is in.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateInserting
	StateCaching
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateInserting:
		return "inserting"
	case StateCaching:
		return "caching"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// MarketSync keeps one market's trades in step with its exchange.
type MarketSync struct {
	market  model.Market
	adapter exchange.Adapter
	ledger  Ledger
	cache   PageCache
	limiter Limiter
	metrics *metrics.Metrics
	backoff time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	state State
	sync  model.SyncState
}

// NewMarketSync creates a loop for m starting from the persisted state st.
func NewMarketSync(
	m model.Market,
	st model.SyncState,
	adapter exchange.Adapter,
	ledger Ledger,
	pages PageCache,
	limiter Limiter,
	mtr *metrics.Metrics,
	backoff time.Duration,
	logger *slog.Logger,
) *MarketSync {
	if logger == nil {
		logger = slog.Default()
	}
	if st.Uncached < 0 {
		st.Uncached = 0
	}
	return &MarketSync{
		market:  m,
		adapter: adapter,
		ledger:  ledger,
		cache:   pages,
		limiter: limiter,
		metrics: mtr,
		backoff: backoff,
		logger:  logger.With("market", m.Code, "exchange", m.Exchange),
		sync:    st,
	}
}

func (s *MarketSync) Market() model.Market {
	return s.market
}

// State returns the current phase and the last persisted sync state.
func (s *MarketSync) State() (State, model.SyncState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.sync
}

func (s *MarketSync) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *MarketSync) setSync(st model.SyncState) {
	s.mu.Lock()
	s.sync = st
	s.mu.Unlock()
	s.metrics.SetUncached(s.market.Code, st.Uncached)
}

func (s *MarketSync) current() model.SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sync
}

// Run iterates until ctx is cancelled. Cancellation is observed between
// iterations; a started commit always completes. Iteration errors are logged
// and never end the loop.
func (s *MarketSync) Run(ctx context.Context) {
	st := s.current()
	s.logger.Info("market sync started",
		"last_stored", st.LastStored,
		"last_cached", st.LastCached,
		"uncached", st.Uncached,
	)

	for {
		if ctx.Err() != nil {
			s.setState(StateIdle)
			s.logger.Info("market sync stopped")
			return
		}

		err := s.Step(ctx)
		if err == nil {
			s.setState(StateIdle)
			continue
		}
		if ctx.Err() != nil {
			continue
		}

		s.setState(StateFailed)
		kind := errorKind(err)
		s.metrics.SyncFailure(s.market.Code, kind)
		s.logger.Warn("sync iteration failed", "kind", kind, "err", err)

		if s.backoff > 0 {
			t := time.NewTimer(s.backoff)
			select {
			case <-ctx.Done():
			case <-t.C:
			}
			t.Stop()
		}
	}
}

// Step runs one iteration: fetch the page at the last stored cursor, commit
// it, then update the cache.
func (s *MarketSync) Step(ctx context.Context) error {
	st := s.current()
	from := st.LastStored

	s.setState(StateFetching)
	b, err := s.fetch(ctx, from)
	if err != nil {
		return err
	}
	if err := s.validate(b); err != nil {
		return err
	}

	// The page is ours from here on: finish it even if ctx is cancelled.
	work := context.WithoutCancel(ctx)

	if b.Len() == 0 && !b.Advanced() {
		return nil
	}

	pageSize := s.adapter.PageSize()
	// Full pages are cached as they arrive, but only while nothing is waiting
	// to be coalesced, so cache entries stay contiguous.
	cacheNow := !b.FromCache && b.Len() >= pageSize && st.Uncached == 0
	// A cached page contiguous with the cache needs no new entry.
	alreadyCached := b.FromCache && st.Uncached == 0

	next := st
	next.LastStored = model.MaxCursor(st.LastStored, b.Next)
	if !cacheNow && !alreadyCached {
		next.Uncached += b.Len()
	}

	s.setState(StateInserting)
	if err := s.ledger.Commit(work, b, next); err != nil {
		return err
	}
	s.setSync(next)
	s.metrics.TradesInserted(s.market.Code, b.Len())
	s.logger.Debug("committed page",
		"from", from,
		"next", b.Next,
		"trades", b.Len(),
		"from_cache", b.FromCache,
	)

	if b.Len() == 0 {
		return nil
	}

	s.setState(StateCaching)
	switch {
	case alreadyCached:
		next.LastCached = model.MaxCursor(next.LastCached, b.Next)
		return s.saveCached(work, next)

	case cacheNow:
		if err := s.cache.Store(s.market, from, s.adapter.CursorTime, b.Raw); err != nil {
			// Count the page as uncached so a later coalesced page covers it.
			s.metrics.CacheWrite(s.market.Code, metrics.WriteFailed)
			s.logger.Warn("cache write failed", "from", from, "err", err)
			next.Uncached += b.Len()
			return s.saveCached(work, next)
		}
		s.metrics.CacheWrite(s.market.Code, metrics.WritePage)
		next.LastCached = b.Next
		return s.saveCached(work, next)

	case next.Uncached >= pageSize:
		return s.coalesce(ctx, work, next)
	}
	return nil
}

// fetch returns the page starting at from, from the cache when present.
func (s *MarketSync) fetch(ctx context.Context, from model.Cursor) (TradeBlock, error) {
	if b, ok := s.load(from); ok {
		return b, nil
	}

	start := time.Now()
	if err := s.limiter.Wait(ctx, s.market.Exchange); err != nil {
		return TradeBlock{}, err
	}
	s.metrics.LimiterWait(s.market.Exchange, time.Since(start))

	page, err := s.adapter.FetchTrades(ctx, s.market, from)
	if err != nil {
		return TradeBlock{}, err
	}
	s.metrics.PageFetched(s.market.Exchange, s.market.Code)

	return TradeBlock{
		Market: s.market,
		From:   from,
		Raw:    page.Raw,
		Trades: page.Trades,
		Next:   page.Next,
	}, nil
}

// load decodes the cached page at from. Unreadable or undecodable entries
// are treated as misses.
func (s *MarketSync) load(from model.Cursor) (TradeBlock, bool) {
	raw, err := s.cache.Load(s.market, from, s.adapter.CursorTime)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("cache read failed", "from", from, "err", err)
		}
		return TradeBlock{}, false
	}

	page, err := s.adapter.ParseTrades(s.market, from, raw)
	if err != nil {
		s.logger.Warn("ignoring undecodable cache entry", "from", from, "err", err)
		return TradeBlock{}, false
	}
	s.metrics.CacheHit(s.market.Code)

	return TradeBlock{
		Market:    s.market,
		From:      from,
		Raw:       raw,
		Trades:    page.Trades,
		Next:      page.Next,
		FromCache: true,
	}, true
}

// validate rejects pages that would move the cursor backwards.
func (s *MarketSync) validate(b TradeBlock) error {
	if b.Next.Less(b.From) {
		return exchange.NewError(exchange.Fatal, s.market.Exchange, "trades",
			fmt.Errorf("next cursor %s is before %s", b.Next, b.From))
	}
	if b.Len() > 0 && !b.Advanced() {
		return exchange.NewError(exchange.Fatal, s.market.Exchange, "trades",
			fmt.Errorf("%d trades did not advance cursor %s", b.Len(), b.From))
	}
	return nil
}

// coalesce produces one full page from the last cached cursor and caches it
// in place of the partial pages it covers.
func (s *MarketSync) coalesce(ctx, work context.Context, st model.SyncState) error {
	from := st.LastCached

	b, err := s.fetch(ctx, from)
	if err != nil {
		return fmt.Errorf("coalesce from %s: %w", from, err)
	}

	if b.Len() == 0 || !b.Advanced() {
		// Nothing past the cache: the count was stale.
		s.logger.Warn("coalesced page is empty, resetting uncached count",
			"from", from, "uncached", st.Uncached)
		st.Uncached = 0
		return s.saveCached(work, st)
	}
	if st.LastStored.Less(b.Next) {
		// The page reaches past committed trades; retry once more are stored.
		s.logger.Debug("deferring coalesced page", "from", from, "next", b.Next, "last_stored", st.LastStored)
		return nil
	}

	if !b.FromCache {
		if err := s.cache.Store(s.market, from, s.adapter.CursorTime, b.Raw); err != nil {
			s.metrics.CacheWrite(s.market.Code, metrics.WriteFailed)
			s.logger.Warn("coalesced cache write failed", "from", from, "err", err)
			return nil
		}
		s.metrics.CacheWrite(s.market.Code, metrics.WriteCoalesced)
	}

	st.LastCached = b.Next
	st.Uncached = max(0, st.Uncached-b.Len())
	s.logger.Debug("coalesced page cached",
		"from", from,
		"next", b.Next,
		"trades", b.Len(),
		"uncached", st.Uncached,
	)
	return s.saveCached(work, st)
}

func (s *MarketSync) saveCached(ctx context.Context, st model.SyncState) error {
	if err := s.ledger.SaveCached(ctx, st); err != nil {
		return err
	}
	s.setSync(st)
	return nil
}

// errorKind labels an iteration error for logs and metrics.
func errorKind(err error) string {
	var fe *exchange.FetchError
	switch {
	case errors.As(err, &fe):
		return fe.Kind.String()
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return exchange.KindOf(err).String()
	}
}
