package cache

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dReserve/FAT/internal/model"
)

func nanoClock(c model.Cursor) time.Time {
	ns, err := strconv.ParseInt(string(c), 10, 64)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return time.Unix(0, ns).UTC()
}

func testMarket() model.Market {
	return model.NewMarket("KRAKEN", "BTC", "USD", "XXBTZUSD")
}

func TestPath_Layout(t *testing.T) {
	d := NewDisk("/var/cache")

	got := d.Path(testMarket(), "1616663618724505614", nanoClock)
	want := filepath.Join("/var/cache", "KRAKEN_BTC_USD", "2021", "3", "25", "1616663618724505614")
	assert.Equal(t, want, got)

	start := d.Path(testMarket(), model.StartCursor, nanoClock)
	assert.Equal(t, filepath.Join("/var/cache", "KRAKEN_BTC_USD", "1970", "1", "1", "0"), start)
}

func TestPath_EscapesCursor(t *testing.T) {
	d := NewDisk("/var/cache")

	got := d.Path(testMarket(), "a/b", nanoClock)
	assert.Equal(t, "a%2Fb", filepath.Base(got))
}

func TestStoreLoad_RoundTrip(t *testing.T) {
	d := NewDisk(t.TempDir())
	m := testMarket()
	raw := []byte(`{"error":[],"result":{"XXBTZUSD":[],"last":"3"}}`)

	require.NoError(t, d.Store(m, "1616663618724505614", nanoClock, raw))

	got, err := d.Load(m, "1616663618724505614", nanoClock)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestLoad_Miss(t *testing.T) {
	d := NewDisk(t.TempDir())

	_, err := d.Load(testMarket(), "42", nanoClock)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestStore_IdempotentOverwrite(t *testing.T) {
	d := NewDisk(t.TempDir())
	m := testMarket()
	raw := []byte("page")

	require.NoError(t, d.Store(m, "7", nanoClock, raw))
	require.NoError(t, d.Store(m, "7", nanoClock, raw))

	got, err := d.Load(m, "7", nanoClock)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	entries, err := os.ReadDir(filepath.Dir(d.Path(m, "7", nanoClock)))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestStore_ConcurrentMarkets(t *testing.T) {
	d := NewDisk(t.TempDir())
	markets := []model.Market{
		model.NewMarket("KRAKEN", "BTC", "USD", "XXBTZUSD"),
		model.NewMarket("KRAKEN", "ETH", "USD", "XETHZUSD"),
		model.NewMarket("KRAKEN", "ETH", "BTC", "XETHXXBT"),
	}

	var wg sync.WaitGroup
	for _, m := range markets {
		wg.Add(1)
		go func(m model.Market) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				c := model.Cursor(strconv.Itoa(i))
				assert.NoError(t, d.Store(m, c, nanoClock, []byte(m.Code+c.String())))
			}
		}(m)
	}
	wg.Wait()

	for _, m := range markets {
		got, err := d.Load(m, "19", nanoClock)
		require.NoError(t, err)
		assert.Equal(t, m.Code+"19", string(got))
	}
}

func TestStore_WriteError(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "KRAKEN_BTC_USD")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o644))

	d := NewDisk(root)
	err := d.Store(testMarket(), "1", nanoClock, []byte("x"))

	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Contains(t, we.Path, "KRAKEN_BTC_USD")
}

func TestEnsureMarket(t *testing.T) {
	d := NewDisk(t.TempDir())
	m := testMarket()

	require.NoError(t, d.EnsureMarket(m))

	info, err := os.Stat(d.MarketDir(m))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
