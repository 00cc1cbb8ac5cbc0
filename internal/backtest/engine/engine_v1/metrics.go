package engine

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/shopspring/decimal"
)

// Metrics are pure functions over the finalized trade log and balance
// history of a completed run. None of them mutate their inputs.

// ProfitFactor returns gross profit, gross loss and their ratio. The ratio
// is None when gross loss is zero, since the division is undefined for an
// all-winning run.
func ProfitFactor(trades []types.Trade) (profitFactor optional.Option[float64], grossProfit float64, grossLoss float64) {
	profitDec := decimal.Zero
	lossDec := decimal.Zero

	for _, trade := range trades {
		resultDec := decimal.NewFromFloat(trade.NetResult)

		if resultDec.IsPositive() {
			profitDec = profitDec.Add(resultDec)
		} else {
			lossDec = lossDec.Add(resultDec.Abs())
		}
	}

	grossProfit, _ = profitDec.Float64()
	grossLoss, _ = lossDec.Float64()

	if lossDec.IsZero() {
		return optional.None[float64](), grossProfit, grossLoss
	}

	ratio, _ := profitDec.Div(lossDec).Float64()

	return optional.Some(ratio), grossProfit, grossLoss
}

// TradeDetails returns the win/loss share of the trade log in percent and
// the best and worst single-trade percentage returns. All four are zero for
// an empty trade log.
func TradeDetails(trades []types.Trade) (winSharePerc, lossSharePerc, bestPerc, worstPerc float64) {
	if len(trades) == 0 {
		return 0, 0, 0, 0
	}

	winners := 0
	bestPerc = trades[0].PercentResult
	worstPerc = trades[0].PercentResult

	for _, trade := range trades {
		if trade.PercentResult > 0 {
			winners++
		}

		if trade.PercentResult > bestPerc {
			bestPerc = trade.PercentResult
		}

		if trade.PercentResult < worstPerc {
			worstPerc = trade.PercentResult
		}
	}

	winSharePerc = float64(winners) / float64(len(trades)) * 100
	lossSharePerc = 100 - winSharePerc

	return winSharePerc, lossSharePerc, bestPerc, worstPerc
}

// MaxDrawdown returns the maximum peak-to-trough decline over the ordered
// balance history, expressed as a percentage of the peak.
func MaxDrawdown(history []types.BalanceSnapshot) float64 {
	if len(history) == 0 {
		return 0
	}

	peak := history[0].Balance
	maxDrawdown := 0.0

	for _, snapshot := range history {
		if snapshot.Balance > peak {
			peak = snapshot.Balance
		}

		if peak <= 0 {
			continue
		}

		drawdown := (peak - snapshot.Balance) / peak * 100
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown
}

// BuyAndHold returns the hypothetical net and percentage return of holding
// the asset from the first to the last row price with the same start
// balance.
func BuyAndHold(startBalance float64, firstPrice float64, lastPrice float64) (net float64, percent float64) {
	if firstPrice == 0 {
		return 0, 0
	}

	net = lastPrice/firstPrice*startBalance - startBalance
	percent = (lastPrice/firstPrice - 1) * 100

	return net, percent
}
