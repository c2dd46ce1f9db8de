package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dReserve/FAT/internal/exchange"
	"github.com/dReserve/FAT/internal/instrument"
	"github.com/dReserve/FAT/internal/metrics"
	"github.com/dReserve/FAT/internal/model"
)

// Config holds supervisor configuration.
type Config struct {
	FailureBackoff time.Duration // Pause after a failed iteration (default: 1s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FailureBackoff: time.Second,
	}
}

// MarketStatus describes a running market for diagnostics.
type MarketStatus struct {
	Market model.Market    `json:"market"`
	State  string          `json:"state"`
	Sync   model.SyncState `json:"sync"`
}

// Supervisor starts one MarketSync per tracked market and owns their lifetime.
type Supervisor struct {
	cfg         Config
	adapters    []exchange.Adapter
	instruments []instrument.Instrument
	ledger      Ledger
	cache       PageCache
	limiter     Limiter
	metrics     *metrics.Metrics
	logger      *slog.Logger

	mu    sync.RWMutex
	syncs []*MarketSync

	cancel context.CancelFunc
	group  *errgroup.Group
}

// New creates a supervisor. Nothing runs until Start.
func New(
	cfg Config,
	adapters []exchange.Adapter,
	instruments []instrument.Instrument,
	ledger Ledger,
	pages PageCache,
	limiter Limiter,
	mtr *metrics.Metrics,
	logger *slog.Logger,
) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		cfg:         cfg,
		adapters:    adapters,
		instruments: instruments,
		ledger:      ledger,
		cache:       pages,
		limiter:     limiter,
		metrics:     mtr,
		logger:      logger,
	}
}

// Start resolves markets on every exchange, prepares their storage and
// launches their loops. It fails when persistence is unreachable or no
// market could be resolved at all; an exchange that cannot list its markets
// is skipped.
func (s *Supervisor) Start(ctx context.Context) error {
	if err := s.ledger.Init(ctx); err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}

	var syncs []*MarketSync
	for _, a := range s.adapters {
		markets, err := a.Markets(ctx, s.instruments)
		if err != nil {
			s.logger.Error("failed to resolve markets", "exchange", a.Code(), "err", err)
			continue
		}
		if len(markets) == 0 {
			s.logger.Warn("no tracked markets on exchange", "exchange", a.Code())
			continue
		}

		for _, m := range markets {
			st, err := s.ledger.EnsureMarket(ctx, m)
			if err != nil {
				return fmt.Errorf("prepare market %s: %w", m.Code, err)
			}
			if err := s.cache.EnsureMarket(m); err != nil {
				return fmt.Errorf("prepare cache %s: %w", m.Code, err)
			}
			syncs = append(syncs, NewMarketSync(
				m, st, a, s.ledger, s.cache, s.limiter, s.metrics, s.cfg.FailureBackoff, s.logger,
			))
		}
	}
	if len(syncs) == 0 {
		return errors.New("no markets resolved")
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g, gctx := errgroup.WithContext(runCtx)
	for _, ms := range syncs {
		ms := ms
		g.Go(func() error {
			ms.Run(gctx)
			return nil
		})
	}

	s.mu.Lock()
	s.syncs = syncs
	s.cancel = cancel
	s.group = g
	s.mu.Unlock()

	s.metrics.SetMarketsRunning(len(syncs))
	s.logger.Info("collector started", "markets", len(syncs), "exchanges", len(s.adapters))
	return nil
}

// Stop cancels all loops, waits for in-flight iterations to finish and then
// closes the ledger.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.RLock()
	cancel, g := s.cancel, s.group
	s.mu.RUnlock()

	if cancel == nil {
		s.ledger.Close()
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.metrics.SetMarketsRunning(0)
		s.ledger.Close()
		s.logger.Info("collector stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Markets reports every running market, sorted by code.
func (s *Supervisor) Markets() []MarketStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]MarketStatus, 0, len(s.syncs))
	for _, ms := range s.syncs {
		state, st := ms.State()
		out = append(out, MarketStatus{Market: ms.Market(), State: state.String(), Sync: st})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Market.Code < out[j].Market.Code })
	return out
}
