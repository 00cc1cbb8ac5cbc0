package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBDataSource reads CSV or Parquet dataset files through a DuckDB view.
type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	name   string
}

// NewDataSource creates a new DuckDB data source backed by an in-memory
// database. Initialize() loads a dataset file into it.
func NewDataSource(log *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatasetLoadFailed, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: log,
		name:   "",
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		reader = "read_csv_auto"
	case ".parquet":
		reader = "read_parquet"
	default:
		return errors.Newf(errors.ErrCodeUnsupportedExtension, "unsupported dataset extension: %s", filepath.Ext(path))
	}

	// Drop any previously loaded dataset first
	_, err := d.db.Exec(`DROP VIEW IF EXISTS dataset;`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDatasetLoadFailed, "failed to drop existing view", err)
	}

	// CREATE VIEW has no placeholder support, escape the path manually
	escapedPath := strings.ReplaceAll(path, "'", "''")

	query := fmt.Sprintf(`CREATE VIEW dataset AS SELECT * FROM %s('%s');`, reader, escapedPath)

	_, err = d.db.Exec(query)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDatasetLoadFailed, err, "failed to load dataset %s", path)
	}

	d.name = filepath.Base(path)

	return nil
}

// Name implements DataSource.
func (d *DuckDBDataSource) Name() string {
	return d.name
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count() (int, error) {
	var count int

	err := d.db.QueryRow(`SELECT COUNT(*) FROM dataset`).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count dataset rows", err)
	}

	return count, nil
}

// Columns implements DataSource.
func (d *DuckDBDataSource) Columns() ([]string, error) {
	rows, err := d.db.Query(`SELECT column_name FROM information_schema.columns WHERE table_name = 'dataset' ORDER BY ordinal_position`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query dataset columns", err)
	}
	defer rows.Close()

	var columns []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan column name", err)
		}

		columns = append(columns, name)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating columns", err)
	}

	return columns, nil
}

// ReadAll implements DataSource. Rows are yielded ordered by the timeseries
// column. Column names are validated against the dataset schema before being
// interpolated, since ORDER BY has no placeholder support.
func (d *DuckDBDataSource) ReadAll(timeColumn string, priceColumn string) func(yield func(types.Row, error) bool) {
	return func(yield func(types.Row, error) bool) {
		columns, err := d.Columns()
		if err != nil {
			yield(types.Row{}, err)

			return
		}

		for _, required := range []string{timeColumn, priceColumn} {
			if !slices.Contains(columns, required) {
				yield(types.Row{}, errors.Newf(errors.ErrCodeColumnNotFound, "column %q not found in dataset %s", required, d.name))

				return
			}
		}

		query := fmt.Sprintf(`SELECT * FROM dataset ORDER BY "%s" ASC`, timeColumn)

		rows, err := d.db.Query(query)
		if err != nil {
			yield(types.Row{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query dataset", err))

			return
		}
		defer rows.Close()

		values := make([]any, len(columns))
		pointers := make([]any, len(columns))

		for i := range values {
			pointers[i] = &values[i]
		}

		for rows.Next() {
			if err := rows.Scan(pointers...); err != nil {
				yield(types.Row{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan dataset row", err))

				return
			}

			fields := make(map[string]any, len(columns))
			for i, name := range columns {
				fields[name] = values[i]
			}

			row, err := types.NewRow(fields, timeColumn, priceColumn)
			if err != nil {
				yield(types.Row{}, err)

				return
			}

			if !yield(row, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Row{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating dataset rows", err))
		}
	}
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}
