package indicator

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// RSI implements the relative strength index over the price column using
// Wilder's smoothing.
type RSI struct {
	period int
}

// NewRSI creates a relative strength index indicator with the given period.
func NewRSI(period int) Indicator {
	return &RSI{period: period}
}

// Name returns the column name the indicator writes.
func (r *RSI) Name() string {
	return fmt.Sprintf("rsi_%d", r.period)
}

// Apply implements Indicator. Warmup rows receive the neutral value 50.
func (r *RSI) Apply(rows []types.Row) error {
	name := r.Name()

	if len(rows) == 0 {
		return nil
	}

	avgGain := 0.0
	avgLoss := 0.0

	for i := range rows {
		if i < r.period {
			// not enough history for a stable average yet
			rows[i].Fields[name] = 50.0

			if i > 0 {
				change := rows[i].Price - rows[i-1].Price
				if change > 0 {
					avgGain += change / float64(r.period)
				} else {
					avgLoss += -change / float64(r.period)
				}
			}

			continue
		}

		change := rows[i].Price - rows[i-1].Price
		gain := 0.0
		loss := 0.0

		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		avgGain = (avgGain*float64(r.period-1) + gain) / float64(r.period)
		avgLoss = (avgLoss*float64(r.period-1) + loss) / float64(r.period)

		if avgLoss == 0 {
			rows[i].Fields[name] = 100.0

			continue
		}

		rs := avgGain / avgLoss
		rows[i].Fields[name] = 100 - 100/(1+rs)
	}

	return nil
}
