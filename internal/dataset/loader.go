// Package dataset reads order datasets from CSV sources.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"order-analytics/internal/analytics"
	"order-analytics/internal/models"
)

const (
	ColumnOrderID      = "order_id"
	ColumnOrderDate    = "order_date"
	ColumnProductID    = "product_id"
	ColumnCustomerID   = "customer_id"
	ColumnProductPrice = "product_price"
)

var requiredColumns = []string{ColumnOrderDate, ColumnProductID, ColumnCustomerID, ColumnProductPrice}

var (
	ErrEmptyFile     = errors.New("empty file")
	ErrMissingColumn = errors.New("missing required column")
)

// LoadError reports a failure to read the source. It is never a DataError:
// values are not interpreted while loading.
type LoadError struct {
	Source string
	Line   int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("load %s: line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads the CSV file at path.
func Load(ctx context.Context, path string) (analytics.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()

	return read(ctx, path, f)
}

// Read parses a header-row CSV stream.
func Read(ctx context.Context, r io.Reader) (analytics.Dataset, error) {
	return read(ctx, "reader", r)
}

func read(ctx context.Context, source string, r io.Reader) (analytics.Dataset, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &LoadError{Source: source, Err: ErrEmptyFile}
	}
	if err != nil {
		return nil, &LoadError{Source: source, Line: 1, Err: err}
	}

	cols, err := columnIndex(header)
	if err != nil {
		return nil, &LoadError{Source: source, Line: 1, Err: err}
	}

	ds := make(analytics.Dataset, 0)
	for {
		if err := ctx.Err(); err != nil {
			return nil, &LoadError{Source: source, Err: err}
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			line := 0
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &LoadError{Source: source, Line: line, Err: err}
		}

		orderID := strconv.Itoa(len(ds))
		if idx, ok := cols[ColumnOrderID]; ok {
			orderID = strings.TrimSpace(record[idx])
		}

		ds = append(ds, models.Order{
			OrderID:      orderID,
			OrderDate:    record[cols[ColumnOrderDate]],
			ProductID:    strings.TrimSpace(record[cols[ColumnProductID]]),
			CustomerID:   strings.TrimSpace(record[cols[ColumnCustomerID]]),
			ProductPrice: record[cols[ColumnProductPrice]],
		})
	}

	return ds, nil
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}
