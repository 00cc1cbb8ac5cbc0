package provider

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/writer"
)

// OnDownloadProgress reports download progress. current and total are in the
// provider's own units, usually epoch milliseconds of the covered range.
type OnDownloadProgress func(current float64, total float64, message string)

// Provider downloads historical klines from an exchange and streams them
// into a configured writer.
type Provider interface {
	// ConfigWriter sets the writer receiving downloaded klines.
	ConfigWriter(w writer.MarketDataWriter)
	// Download fetches klines for symbol between startDate and endDate at
	// the given interval and returns the path of the written dataset file.
	Download(ctx context.Context, symbol string, startDate time.Time, endDate time.Time, interval string, onProgress OnDownloadProgress) (string, error)
}
