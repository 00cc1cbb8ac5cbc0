package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// DuckDBWriter buffers klines in an in-memory DuckDB table and exports them
// as a Parquet dataset file on Finalize. The column layout matches the
// Binance kline export format the backtest datasets use.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
	fileName   string
}

// NewDuckDBWriter creates a writer that saves the dataset file into
// outputPath under the given file name.
func NewDuckDBWriter(outputPath string, fileName string) MarketDataWriter {
	return &DuckDBWriter{
		outputPath: outputPath,
		fileName:   fileName,
	}
}

// Initialize sets up the in-memory database, the kline table, a transaction
// and the prepared insert statement.
func (w *DuckDBWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to open DuckDB connection", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS klines (
			symbol TEXT,
			kline_open_time BIGINT,
			open_price DOUBLE,
			high_price DOUBLE,
			low_price DOUBLE,
			close_price DOUBLE,
			volume DOUBLE,
			kline_close_time BIGINT,
			quote_asset_volume DOUBLE,
			number_of_trades BIGINT,
			taker_buy_base_asset_volume DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create klines table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO klines (
			symbol, kline_open_time, open_price, high_price, low_price,
			close_price, volume, kline_close_time, quote_asset_volume,
			number_of_trades, taker_buy_base_asset_volume
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to prepare statement", err)
	}

	return nil
}

// Write persists a single kline using the prepared statement.
func (w *DuckDBWriter) Write(kline types.Kline) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeWriteFailed, "writer not initialized")
	}

	_, err := w.stmt.Exec(
		kline.Symbol,
		kline.KlineOpenTime,
		kline.OpenPrice,
		kline.HighPrice,
		kline.LowPrice,
		kline.ClosePrice,
		kline.Volume,
		kline.KlineCloseTime,
		kline.QuoteAssetVolume,
		kline.NumberOfTrades,
		kline.TakerBuyBaseAssetVolume,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to insert kline", err)
	}

	return nil
}

// Finalize commits the transaction and exports the table to a Parquet file.
func (w *DuckDBWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeWriteFailed, "writer not initialized")
	}

	defer w.db.Close()

	if err := w.tx.Commit(); err != nil {
		w.tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeWriteFailed, "failed to commit transaction", err)
	}

	if err := os.MkdirAll(w.outputPath, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeWriteFailed, "failed to create output directory", err)
	}

	outputFile := filepath.Join(w.outputPath, w.fileName)
	escapedPath := strings.ReplaceAll(outputFile, "'", "''")

	query := fmt.Sprintf(`COPY (SELECT * FROM klines ORDER BY kline_open_time ASC) TO '%s' (FORMAT PARQUET)`, escapedPath)

	if _, err := w.db.Exec(query); err != nil {
		return "", errors.Wrap(errors.ErrCodeWriteFailed, "failed to export klines to Parquet", err)
	}

	return outputFile, nil
}
