package types

import (
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Row is one sample of a time series. Timestamp and Price are extracted from
// the configured timeseries and price columns; Fields holds every column of
// the row by name for rule evaluation.
type Row struct {
	// Timestamp is the bar open time in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`
	// Price is the value of the configured price column.
	Price float64 `json:"price"`
	// Fields contains all named columns of the row, including the price and
	// timeseries columns themselves.
	Fields map[string]any `json:"fields"`
}

// NewRow builds a Row from a column map, extracting the timeseries and price
// columns. The field map is used as-is, not copied.
func NewRow(fields map[string]any, timeColumn string, priceColumn string) (Row, error) {
	rawTime, ok := fields[timeColumn]
	if !ok {
		return Row{}, errors.Newf(errors.ErrCodeColumnNotFound, "timeseries column %q not found in row", timeColumn)
	}

	timestamp, ok := ToInt64(rawTime)
	if !ok {
		return Row{}, errors.Newf(errors.ErrCodeColumnTypeMismatch, "timeseries column %q is not numeric: %v", timeColumn, rawTime)
	}

	rawPrice, ok := fields[priceColumn]
	if !ok {
		return Row{}, errors.Newf(errors.ErrCodeColumnNotFound, "price column %q not found in row", priceColumn)
	}

	price, ok := ToFloat64(rawPrice)
	if !ok {
		return Row{}, errors.Newf(errors.ErrCodeColumnTypeMismatch, "price column %q is not numeric: %v", priceColumn, rawPrice)
	}

	return Row{
		Timestamp: timestamp,
		Price:     price,
		Fields:    fields,
	}, nil
}

// ToFloat64 converts any numeric database value to a float64.
func ToFloat64(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int64:
		return float64(value), true
	case int32:
		return float64(value), true
	case int:
		return float64(value), true
	case uint64:
		return float64(value), true
	case uint32:
		return float64(value), true
	default:
		return 0, false
	}
}

// ToInt64 converts any numeric database value to an int64.
func ToInt64(v any) (int64, bool) {
	switch value := v.(type) {
	case int64:
		return value, true
	case int32:
		return int64(value), true
	case int:
		return int64(value), true
	case uint64:
		return int64(value), true
	case uint32:
		return int64(value), true
	case float64:
		return int64(value), true
	case float32:
		return int64(value), true
	default:
		return 0, false
	}
}
