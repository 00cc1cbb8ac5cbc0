package engine

import (
	"context"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// OnRowCallback is called after each processed row with the current row
// number and the total row count.
type OnRowCallback func(current int, total int)

// Engine runs one trading strategy over one time series and produces a
// BacktestResult.
type Engine interface {
	// Initialize the engine with the given YAML strategy configuration.
	Initialize(config string) error
	// SetDataSource sets the data source for the engine.
	SetDataSource(dataSource datasource.DataSource) error
	// Run executes the simulation. The context can be used to cancel a
	// long-running run between rows; a canceled run produces no result.
	Run(ctx context.Context, onRow optional.Option[OnRowCallback]) (*types.BacktestResult, error)
	// GetConfigSchema returns the JSON schema of the strategy configuration.
	GetConfigSchema() (string, error)
}
