package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.PageFetched("KRAKEN", "KRAKEN_BTC_USD")
	m.PageFetched("KRAKEN", "KRAKEN_BTC_USD")
	m.CacheHit("KRAKEN_BTC_USD")
	m.TradesInserted("KRAKEN_BTC_USD", 1000)
	m.TradesInserted("KRAKEN_BTC_USD", 0)
	m.CacheWrite("KRAKEN_BTC_USD", WriteCoalesced)
	m.SyncFailure("KRAKEN_BTC_USD", "transient")
	m.SetUncached("KRAKEN_BTC_USD", 42)

	got := gather(t, m)
	assert.Equal(t, 2.0, got["collector_pages_fetched_total"])
	assert.Equal(t, 1.0, got["collector_cache_hits_total"])
	assert.Equal(t, 1000.0, got["collector_trades_inserted_total"])
	assert.Equal(t, 1.0, got["collector_cache_writes_total"])
	assert.Equal(t, 1.0, got["collector_sync_failures_total"])
	assert.Equal(t, 42.0, got["collector_uncached_trades"])
}

// gather sums every counter and gauge sample by metric family name.
func gather(t *testing.T, m *Metrics) map[string]float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	out := make(map[string]float64)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				out[mf.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				out[mf.GetName()] += metric.GetGauge().GetValue()
			}
		}
	}
	return out
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.PageFetched("KRAKEN", "KRAKEN_BTC_USD")
	m.LimiterWait("KRAKEN", time.Second)
	m.SetMarketsRunning(3)
}

func TestHandler(t *testing.T) {
	m := New()
	m.SetMarketsRunning(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "collector_markets_running 2"))
}
