package datasource

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// DataSource provides ordered time-series rows to the backtest engine.
// Implementations must yield rows sorted ascending by the timeseries column.
type DataSource interface {
	// Initialize loads the dataset at the given path.
	Initialize(path string) error
	// Name returns a short identifier of the loaded dataset for reporting.
	Name() string
	// Count returns the number of rows in the dataset.
	Count() (int, error)
	// Columns returns the column names of the dataset.
	Columns() ([]string, error)
	// ReadAll returns an iterator over all rows in timeseries order. The
	// timeseries and price columns are resolved by name on each row.
	ReadAll(timeColumn string, priceColumn string) func(yield func(types.Row, error) bool)
	// Close releases the underlying resources.
	Close() error
}
