package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "collector"

// Metrics holds the collector's instruments on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	pagesFetched   *prometheus.CounterVec
	cacheHits      *prometheus.CounterVec
	tradesInserted *prometheus.CounterVec
	cacheWrites    *prometheus.CounterVec
	failures       *prometheus.CounterVec
	limiterWait    *prometheus.HistogramVec
	uncached       *prometheus.GaugeVec
	markets        prometheus.Gauge
}

// New registers all collector metrics, plus Go runtime and process
// collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		pagesFetched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Trade pages fetched from the exchange API.",
		}, []string{"exchange", "market"}),
		cacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Trade pages served from the disk cache.",
		}, []string{"market"}),
		tradesInserted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_inserted_total",
			Help:      "Trades committed to the database.",
		}, []string{"market"}),
		cacheWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_writes_total",
			Help:      "Cache entries written, by result (page, coalesced, failed).",
		}, []string{"market", "result"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_failures_total",
			Help:      "Sync iterations that ended in failure, by error kind.",
		}, []string{"market", "kind"}),
		limiterWait: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting for a rate limiter slot.",
			Buckets:   []float64{0, .1, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"exchange"}),
		uncached: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uncached_trades",
			Help:      "Stored trades not yet covered by a cache entry.",
		}, []string{"market"}),
		markets: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "markets_running",
			Help:      "Markets with a running sync loop.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) PageFetched(exchange, market string) {
	if m == nil {
		return
	}
	m.pagesFetched.WithLabelValues(exchange, market).Inc()
}

func (m *Metrics) CacheHit(market string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(market).Inc()
}

func (m *Metrics) TradesInserted(market string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.tradesInserted.WithLabelValues(market).Add(float64(n))
}

// Cache write results.
const (
	WritePage      = "page"
	WriteCoalesced = "coalesced"
	WriteFailed    = "failed"
)

func (m *Metrics) CacheWrite(market, result string) {
	if m == nil {
		return
	}
	m.cacheWrites.WithLabelValues(market, result).Inc()
}

func (m *Metrics) SyncFailure(market, kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(market, kind).Inc()
}

func (m *Metrics) LimiterWait(exchange string, d time.Duration) {
	if m == nil {
		return
	}
	m.limiterWait.WithLabelValues(exchange).Observe(d.Seconds())
}

func (m *Metrics) SetUncached(market string, n int) {
	if m == nil {
		return
	}
	m.uncached.WithLabelValues(market).Set(float64(n))
}

func (m *Metrics) SetMarketsRunning(n int) {
	if m == nil {
		return
	}
	m.markets.Set(float64(n))
}
