// Package analytics computes revenue breakdowns over an in-memory order
// dataset. Every function is pure: the dataset is read, never modified, so
// the breakdowns may be computed in any order or concurrently.
package analytics

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"order-analytics/internal/models"
)

const (
	// MonthLayout formats a MonthKey.
	MonthLayout = "2006-01"

	DefaultTopCustomers = 10
)

// Dataset is the full collection of orders for one analysis run.
type Dataset []models.Order

var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

// ParseDate interprets an order date using the accepted layouts, first match
// wins.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// ParsePrice interprets a product price as an exact decimal.
func ParsePrice(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, ErrInvalidPrice
	}
	return d, nil
}

// MonthKey truncates t to its calendar year-month.
func MonthKey(t time.Time) string {
	return t.Format(MonthLayout)
}

// RevenueByMonth sums product prices per calendar month. A record whose date
// or price cannot be interpreted fails the whole call with a *DataError.
func RevenueByMonth(ds Dataset) (Series, error) {
	return groupBy(ds, func(i int, o models.Order) (string, error) {
		t, err := ParseDate(o.OrderDate)
		if err != nil {
			return "", &DataError{Row: i, OrderID: o.OrderID, Field: FieldOrderDate, Value: o.OrderDate, Err: err}
		}
		return MonthKey(t), nil
	})
}

// RevenueByProduct sums product prices per product ID.
func RevenueByProduct(ds Dataset) (Series, error) {
	return groupBy(ds, func(_ int, o models.Order) (string, error) {
		return o.ProductID, nil
	})
}

// RevenueByCustomer sums product prices per customer ID.
func RevenueByCustomer(ds Dataset) (Series, error) {
	return groupBy(ds, func(_ int, o models.Order) (string, error) {
		return o.CustomerID, nil
	})
}

// Top10Customers is TopCustomers with the default limit.
func Top10Customers(ds Dataset) (Series, error) {
	return TopCustomers(ds, DefaultTopCustomers)
}

// TopCustomers returns at most n customers ordered by revenue descending.
// Equal revenues are ordered by customer ID ascending.
func TopCustomers(ds Dataset, n int) (Series, error) {
	byCustomer, err := RevenueByCustomer(ds)
	if err != nil {
		return nil, err
	}
	return rankTop(byCustomer, n), nil
}

func rankTop(s Series, n int) Series {
	ranked := slices.Clone(s)
	slices.SortFunc(ranked, func(a, b Entry) int {
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		return compareKeys(a.Key, b.Key)
	})
	if n < 0 {
		n = 0
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

type keyFunc func(row int, o models.Order) (string, error)

// groupBy is a single pass over ds. The result is ordered by key.
func groupBy(ds Dataset, key keyFunc) (Series, error) {
	index := make(map[string]int)
	out := make(Series, 0)

	for i, o := range ds {
		k, err := key(i, o)
		if err != nil {
			return nil, err
		}
		price, err := ParsePrice(o.ProductPrice)
		if err != nil {
			return nil, &DataError{Row: i, OrderID: o.OrderID, Field: FieldProductPrice, Value: o.ProductPrice, Err: err}
		}

		if pos, ok := index[k]; ok {
			out[pos].Revenue = out[pos].Revenue.Add(price)
			continue
		}
		index[k] = len(out)
		out = append(out, Entry{Key: k, Revenue: price})
	}

	slices.SortFunc(out, func(a, b Entry) int {
		return compareKeys(a.Key, b.Key)
	})
	return out, nil
}
