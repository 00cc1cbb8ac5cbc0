package indicator

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// EMA implements the exponential moving average over the price column.
type EMA struct {
	period int
}

// NewEMA creates an exponential moving average indicator with the given period.
func NewEMA(period int) Indicator {
	return &EMA{period: period}
}

// Name returns the column name the indicator writes.
func (e *EMA) Name() string {
	return fmt.Sprintf("ema_%d", e.period)
}

// Apply implements Indicator. The average is seeded with the first price.
func (e *EMA) Apply(rows []types.Row) error {
	if len(rows) == 0 {
		return nil
	}

	name := e.Name()
	multiplier := 2.0 / float64(e.period+1)
	value := rows[0].Price

	for i := range rows {
		value = (rows[i].Price-value)*multiplier + value
		rows[i].Fields[name] = value
	}

	return nil
}
