package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dReserve/FAT/internal/exchange"
	"github.com/dReserve/FAT/internal/instrument"
	"github.com/dReserve/FAT/internal/model"
)

// GetAssetPairs fetches all tradable pairs.
func (c *Client) GetAssetPairs(ctx context.Context) (map[string]AssetPair, error) {
	_, result, err := c.get(ctx, "asset_pairs", "/0/public/AssetPairs", nil)
	if err != nil {
		return nil, err
	}

	var pairs map[string]AssetPair
	if err := json.Unmarshal(result, &pairs); err != nil {
		return nil, exchange.NewError(exchange.Fatal, Code, "asset_pairs", fmt.Errorf("unmarshal pairs: %w", err))
	}
	return pairs, nil
}

// Markets returns every Kraken pair whose base and quote are both tracked.
// Dark pool pairs (".d") and pairs with a non-online status are skipped.
func (c *Client) Markets(ctx context.Context, instruments []instrument.Instrument) ([]model.Market, error) {
	pairs, err := c.GetAssetPairs(ctx)
	if err != nil {
		return nil, err
	}
	return matchPairs(pairs, instruments), nil
}

func matchPairs(pairs map[string]AssetPair, instruments []instrument.Instrument) []model.Market {
	tracked := instrument.Set(instruments)

	names := make([]string, 0, len(pairs))
	for name := range pairs {
		names = append(names, name)
	}
	sort.Strings(names)

	seen := make(map[string]struct{})
	var markets []model.Market
	for _, name := range names {
		if strings.HasSuffix(name, ".d") {
			continue
		}
		p := pairs[name]
		if p.Status != "" && p.Status != "online" {
			continue
		}

		base, quote := assetCode(p.Base), assetCode(p.Quote)
		if _, ok := tracked[base]; !ok {
			continue
		}
		if _, ok := tracked[quote]; !ok {
			continue
		}

		m := model.NewMarket(Code, base, quote, name)
		if _, dup := seen[m.Code]; dup {
			continue
		}
		seen[m.Code] = struct{}{}
		markets = append(markets, m)
	}
	return markets
}
