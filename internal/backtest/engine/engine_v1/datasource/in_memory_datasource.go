package datasource

import (
	"sort"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// InMemoryDataSource serves rows from a pre-built slice of column maps.
// It is used by tests and by callers that already hold the series in memory.
type InMemoryDataSource struct {
	name   string
	fields []map[string]any
}

// NewInMemoryDataSource creates a data source over the given column maps.
func NewInMemoryDataSource(name string, fields []map[string]any) DataSource {
	return &InMemoryDataSource{
		name:   name,
		fields: fields,
	}
}

// Initialize implements DataSource. It is a no-op since the rows are
// provided at construction time.
func (d *InMemoryDataSource) Initialize(path string) error {
	return nil
}

// Name implements DataSource.
func (d *InMemoryDataSource) Name() string {
	return d.name
}

// Count implements DataSource.
func (d *InMemoryDataSource) Count() (int, error) {
	return len(d.fields), nil
}

// Columns implements DataSource. Column names are taken from the first row.
func (d *InMemoryDataSource) Columns() ([]string, error) {
	if len(d.fields) == 0 {
		return nil, nil
	}

	columns := make([]string, 0, len(d.fields[0]))
	for name := range d.fields[0] {
		columns = append(columns, name)
	}

	sort.Strings(columns)

	return columns, nil
}

// ReadAll implements DataSource. Rows are yielded sorted by the timeseries
// column.
func (d *InMemoryDataSource) ReadAll(timeColumn string, priceColumn string) func(yield func(types.Row, error) bool) {
	return func(yield func(types.Row, error) bool) {
		rows := make([]types.Row, 0, len(d.fields))

		for _, fields := range d.fields {
			row, err := types.NewRow(fields, timeColumn, priceColumn)
			if err != nil {
				yield(types.Row{}, err)

				return
			}

			rows = append(rows, row)
		}

		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Timestamp < rows[j].Timestamp
		})

		for _, row := range rows {
			if !yield(row, nil) {
				return
			}
		}
	}
}

// Close implements DataSource.
func (d *InMemoryDataSource) Close() error {
	return nil
}
