package analytics

import (
	"errors"
	"fmt"
)

const (
	FieldOrderDate    = "order_date"
	FieldProductPrice = "product_price"
)

var (
	ErrInvalidDate  = errors.New("unparseable date")
	ErrInvalidPrice = errors.New("non-numeric price")
)

// DataError reports a record that cannot be interpreted. Row is the 0-based
// index of the record in the dataset.
type DataError struct {
	Row     int
	OrderID string
	Field   string
	Value   string
	Err     error
}

func (e *DataError) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("row %d (order %s): %s %q: %v", e.Row, e.OrderID, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("row %d: %s %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// IsDataError reports whether err carries a *DataError.
func IsDataError(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}
