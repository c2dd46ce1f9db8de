// Package instrument holds the closed set of financial instruments the
// collector knows how to track.
package instrument

import (
	"fmt"
	"sort"
	"strings"
)

// Instrument is a financial instrument such as a currency or a token.
type Instrument struct {
	Code string // e.g. "BTC"
	Name string // e.g. "bitcoin"
}

func (i Instrument) String() string {
	return i.Code
}

var known = map[string]Instrument{
	"BTC":  {Code: "BTC", Name: "bitcoin"},
	"ETH":  {Code: "ETH", Name: "ether"},
	"DASH": {Code: "DASH", Name: "dash"},
	"LTC":  {Code: "LTC", Name: "litecoin"},
	"USD":  {Code: "USD", Name: "dollar"},
	"EUR":  {Code: "EUR", Name: "euro"},
}

// Lookup returns the instrument registered under code (case-insensitive).
func Lookup(code string) (Instrument, bool) {
	i, ok := known[strings.ToUpper(code)]
	return i, ok
}

// Resolve converts a list of codes into instruments. Unknown codes are an error.
func Resolve(codes []string) ([]Instrument, error) {
	out := make([]Instrument, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		i, ok := Lookup(c)
		if !ok {
			return nil, fmt.Errorf("unknown instrument %q", c)
		}
		if _, dup := seen[i.Code]; dup {
			continue
		}
		seen[i.Code] = struct{}{}
		out = append(out, i)
	}
	return out, nil
}

// Codes returns every registered instrument code, sorted.
func Codes() []string {
	codes := make([]string, 0, len(known))
	for c := range known {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Set indexes instruments by code.
func Set(instruments []Instrument) map[string]Instrument {
	s := make(map[string]Instrument, len(instruments))
	for _, i := range instruments {
		s[i.Code] = i
	}
	return s
}
