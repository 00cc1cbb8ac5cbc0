package writer

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// MarketDataWriter persists downloaded klines into a dataset file the
// backtest datasource can load.
type MarketDataWriter interface {
	// Initialize sets up the writer before the first Write.
	Initialize() error
	// Write persists a single kline.
	Write(kline types.Kline) error
	// Finalize flushes everything and returns the path of the written
	// dataset file.
	Finalize() (string, error)
}
