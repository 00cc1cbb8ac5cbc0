package indicator

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// SMA implements the simple moving average over the price column.
type SMA struct {
	period int
}

// NewSMA creates a simple moving average indicator with the given period.
func NewSMA(period int) Indicator {
	return &SMA{period: period}
}

// Name returns the column name the indicator writes.
func (s *SMA) Name() string {
	return fmt.Sprintf("sma_%d", s.period)
}

// Apply implements Indicator. Rows inside the warmup window receive the
// average of the rows seen so far, so the column is defined for every row.
func (s *SMA) Apply(rows []types.Row) error {
	name := s.Name()
	sum := 0.0

	for i := range rows {
		sum += rows[i].Price

		window := s.period
		if i+1 < window {
			window = i + 1
		} else if i >= s.period {
			sum -= rows[i-s.period].Price
		}

		rows[i].Fields[name] = sum / float64(window)
	}

	return nil
}
