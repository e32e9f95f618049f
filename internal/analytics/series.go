package analytics

import (
	"bytes"
	"cmp"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Entry is a single group of a revenue breakdown.
type Entry struct {
	Key     string          `json:"key"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Series is an ordered revenue breakdown. It marshals to a JSON object whose
// member order follows the series order and whose values are JSON numbers.
type Series []Entry

func (s Series) Len() int { return len(s) }

// Total sums every entry of the series.
func (s Series) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range s {
		total = total.Add(e.Revenue)
	}
	return total
}

// Get returns the revenue recorded for key.
func (s Series) Get(key string) (decimal.Decimal, bool) {
	for _, e := range s {
		if e.Key == key {
			return e.Revenue, true
		}
	}
	return decimal.Zero, false
}

// Keys returns the entry keys in series order.
func (s Series) Keys() []string {
	keys := make([]string, len(s))
	for i, e := range s {
		keys[i] = e.Key
	}
	return keys
}

// Map loses ordering; use it for lookups only.
func (s Series) Map() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(s))
	for _, e := range s {
		m[e.Key] = e.Revenue
	}
	return m
}

func (s Series) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(e.Revenue.String())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// compareKeys is a total order over keys. Integer keys come first in
// numeric order, so product 2 sorts before product 10; all other keys follow
// in byte order. Integer keys of equal value ("01", "1") fall back to byte
// order.
func compareKeys(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		if c := cmp.Compare(ai, bi); c != 0 {
			return c
		}
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return strings.Compare(a, b)
}
