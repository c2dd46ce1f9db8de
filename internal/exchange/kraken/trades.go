package kraken

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dReserve/FAT/internal/exchange"
	"github.com/dReserve/FAT/internal/model"
)

// FetchTrades requests up to one page of trades after from.
func (c *Client) FetchTrades(ctx context.Context, m model.Market, from model.Cursor) (exchange.Page, error) {
	since := from
	if since == "" {
		since = model.StartCursor
	}

	query := url.Values{}
	query.Set("pair", m.APIName)
	query.Set("since", string(since))

	body, _, err := c.get(ctx, "trades", "/0/public/Trades", query)
	if err != nil {
		return exchange.Page{}, err
	}

	page, err := c.ParseTrades(m, from, body)
	if err != nil {
		return exchange.Page{}, err
	}

	c.logger.Debug("fetched trades",
		"market", m.Code,
		"from", from,
		"count", page.Len(),
		"next", page.Next,
	)
	return page, nil
}

// ParseTrades decodes a Trades response body. The body is kept as Raw.
func (c *Client) ParseTrades(m model.Market, from model.Cursor, raw []byte) (exchange.Page, error) {
	result, err := decodeEnvelope(raw)
	if err != nil {
		return exchange.Page{}, classify("trades", err)
	}

	trades, next, err := parseTradesResult(m, from, result)
	if err != nil {
		return exchange.Page{}, exchange.NewError(exchange.Fatal, Code, "trades", err)
	}

	return exchange.Page{
		Raw:    raw,
		Trades: trades,
		Next:   next,
	}, nil
}

// parseTradesResult decodes {"<pair>": [[price, volume, time, side, type, misc, id]], "last": "<ns>"}.
func parseTradesResult(m model.Market, from model.Cursor, result json.RawMessage) ([]model.Trade, model.Cursor, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(result, &members); err != nil {
		return nil, "", fmt.Errorf("%w: result: %v", errMalformed, err)
	}

	lastRaw, ok := members["last"]
	if !ok {
		return nil, "", fmt.Errorf("%w: missing last", errMalformed)
	}
	next, err := parseCursor(lastRaw)
	if err != nil {
		return nil, "", err
	}

	rowsRaw, ok := members[m.APIName]
	if !ok {
		// Some pairs are echoed back under their altname.
		for k, v := range members {
			if k != "last" {
				rowsRaw, ok = v, true
				break
			}
		}
	}
	if !ok {
		return nil, next, nil
	}

	dec := json.NewDecoder(bytes.NewReader(rowsRaw))
	dec.UseNumber()
	var rows [][]any
	if err := dec.Decode(&rows); err != nil {
		return nil, "", fmt.Errorf("%w: trades: %v", errMalformed, err)
	}

	trades := make([]model.Trade, 0, len(rows))
	for i, row := range rows {
		t, err := parseTradeRow(row)
		if err != nil {
			return nil, "", fmt.Errorf("trade %d: %w", i, err)
		}
		t.ID = model.TradeID(m.Code, from, i)
		trades = append(trades, t)
	}
	return trades, next, nil
}

func parseCursor(raw json.RawMessage) (model.Cursor, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", fmt.Errorf("%w: empty last", errMalformed)
		}
		return model.Cursor(s), nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", fmt.Errorf("%w: last: %v", errMalformed, err)
	}
	return model.Cursor(n.String()), nil
}

// parseTradeRow decodes [price, volume, time, side, type, misc, ...].
func parseTradeRow(row []any) (model.Trade, error) {
	if len(row) < 5 {
		return model.Trade{}, fmt.Errorf("%w: %d fields", errMalformed, len(row))
	}

	price, err := parseFloat(row[0])
	if err != nil {
		return model.Trade{}, fmt.Errorf("price: %w", err)
	}
	volume, err := parseFloat(row[1])
	if err != nil {
		return model.Trade{}, fmt.Errorf("volume: %w", err)
	}
	ts, err := parseTime(row[2])
	if err != nil {
		return model.Trade{}, fmt.Errorf("time: %w", err)
	}
	side, _ := row[3].(string)
	orderType, _ := row[4].(string)

	return model.Trade{
		Price:   price,
		Volume:  volume,
		Time:    ts,
		IsBuy:   side == "b",
		IsLimit: orderType == "l",
	}, nil
}

func parseFloat(v any) (float64, error) {
	switch x := v.(type) {
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", errMalformed, err)
		}
		return f, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", errMalformed, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: unexpected %T", errMalformed, v)
	}
}

// parseTime converts fractional Unix seconds ("1616663618.7245") without
// going through float64, which would lose sub-microsecond digits.
func parseTime(v any) (time.Time, error) {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = x
	default:
		return time.Time{}, fmt.Errorf("%w: unexpected %T", errMalformed, v)
	}

	secPart, fracPart, _ := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", errMalformed, err)
	}

	var nsec int64
	if fracPart != "" {
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		fracPart += strings.Repeat("0", 9-len(fracPart))
		nsec, err = strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", errMalformed, err)
		}
	}
	return time.Unix(sec, nsec).UTC(), nil
}
