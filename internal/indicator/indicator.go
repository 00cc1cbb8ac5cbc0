// Package indicator computes indicator columns over a materialized row
// series so rule expressions can reference them by name (sma_20, ema_12,
// rsi_14, ...) even when the raw dataset carries no indicator columns.
package indicator

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Indicator writes one named column into every row of a series.
type Indicator interface {
	// Name is the column name the indicator writes.
	Name() string
	// Apply computes the indicator over the series and stores the value in
	// each row's field map under Name().
	Apply(rows []types.Row) error
}

// Request asks for one indicator column by kind and period.
type Request struct {
	Kind   string
	Period int
}

// New creates an indicator for the given request.
func New(request Request) (Indicator, error) {
	if request.Period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidIndicator, "indicator period must be positive, got %d", request.Period)
	}

	switch request.Kind {
	case "sma":
		return NewSMA(request.Period), nil
	case "ema":
		return NewEMA(request.Period), nil
	case "rsi":
		return NewRSI(request.Period), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidIndicator, "unknown indicator kind: %s", request.Kind)
	}
}

// Enrich applies all requested indicators to the series in order.
func Enrich(rows []types.Row, requests []Request) error {
	for _, request := range requests {
		ind, err := New(request)
		if err != nil {
			return err
		}

		if err := ind.Apply(rows); err != nil {
			return err
		}
	}

	return nil
}
