package types

import (
	"fmt"
	"os"

	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"
)

// BalanceSnapshot is one point of the per-row balance history.
type BalanceSnapshot struct {
	// Timestamp is the bar open time in epoch milliseconds.
	Timestamp int64 `json:"timestamp" yaml:"timestamp"`
	// Balance is the total account value: cash plus the mark-to-market
	// value of any open long, minus the buy-back cost of any open short.
	Balance float64 `json:"balance" yaml:"balance"`
}

// BacktestResult is the finalized output of one backtest run. It is derived
// once after the simulation loop terminates and is immutable thereafter.
type BacktestResult struct {
	// ID is assigned by the result store on save; the engine leaves it empty
	// so that identical (rows, config) inputs produce identical results.
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	// DatasetName identifies the dataset file the run was executed against.
	DatasetName string `json:"dataset_name"`

	StartBalance  float64 `json:"start_balance"`
	EndBalance    float64 `json:"end_balance"`
	ResultPercent float64 `json:"result_percent"`

	// ProfitFactor is gross profit / gross loss. It is None when the run has
	// no losing trades, since the ratio is undefined rather than infinite.
	ProfitFactor optional.Option[float64] `json:"profit_factor"`
	GrossProfit  float64                  `json:"gross_profit"`
	GrossLoss    float64                  `json:"gross_loss"`

	TradeCount               int     `json:"trade_count"`
	ShareOfWinningTradesPerc float64 `json:"share_of_winning_trades_perc"`
	ShareOfLosingTradesPerc  float64 `json:"share_of_losing_trades_perc"`
	BestTradeResultPerc      float64 `json:"best_trade_result_perc"`
	WorstTradeResultPerc     float64 `json:"worst_trade_result_perc"`
	MaxDrawdownPerc          float64 `json:"max_drawdown_perc"`
	BuyAndHoldResultNet      float64 `json:"buy_and_hold_result_net"`
	BuyAndHoldResultPerc     float64 `json:"buy_and_hold_result_perc"`

	OpenLongRule   string `json:"open_long_rule"`
	OpenShortRule  string `json:"open_short_rule"`
	CloseLongRule  string `json:"close_long_rule"`
	CloseShortRule string `json:"close_short_rule"`

	Trades         []Trade           `json:"trades"`
	BalanceHistory []BalanceSnapshot `json:"balance_history"`
}

// ResultSummary is the flat, human-readable view of a BacktestResult written
// to the results folder.
type ResultSummary struct {
	Name                     string   `yaml:"name"`
	DatasetName              string   `yaml:"dataset_name"`
	StartBalance             float64  `yaml:"start_balance"`
	EndBalance               float64  `yaml:"end_balance"`
	ResultPercent            float64  `yaml:"result_percent"`
	ProfitFactor             *float64 `yaml:"profit_factor"`
	GrossProfit              float64  `yaml:"gross_profit"`
	GrossLoss                float64  `yaml:"gross_loss"`
	TradeCount               int      `yaml:"trade_count"`
	ShareOfWinningTradesPerc float64  `yaml:"share_of_winning_trades_perc"`
	ShareOfLosingTradesPerc  float64  `yaml:"share_of_losing_trades_perc"`
	BestTradeResultPerc      float64  `yaml:"best_trade_result_perc"`
	WorstTradeResultPerc     float64  `yaml:"worst_trade_result_perc"`
	MaxDrawdownPerc          float64  `yaml:"max_drawdown_perc"`
	BuyAndHoldResultNet      float64  `yaml:"buy_and_hold_result_net"`
	BuyAndHoldResultPerc     float64  `yaml:"buy_and_hold_result_perc"`
	Trades                   []Trade  `yaml:"trades"`
}

// Summary converts the result into its flat YAML view.
func (r *BacktestResult) Summary() ResultSummary {
	var profitFactor *float64

	if r.ProfitFactor.IsSome() {
		value := r.ProfitFactor.Unwrap()
		profitFactor = &value
	}

	return ResultSummary{
		Name:                     r.Name,
		DatasetName:              r.DatasetName,
		StartBalance:             r.StartBalance,
		EndBalance:               r.EndBalance,
		ResultPercent:            r.ResultPercent,
		ProfitFactor:             profitFactor,
		GrossProfit:              r.GrossProfit,
		GrossLoss:                r.GrossLoss,
		TradeCount:               r.TradeCount,
		ShareOfWinningTradesPerc: r.ShareOfWinningTradesPerc,
		ShareOfLosingTradesPerc:  r.ShareOfLosingTradesPerc,
		BestTradeResultPerc:      r.BestTradeResultPerc,
		WorstTradeResultPerc:     r.WorstTradeResultPerc,
		MaxDrawdownPerc:          r.MaxDrawdownPerc,
		BuyAndHoldResultNet:      r.BuyAndHoldResultNet,
		BuyAndHoldResultPerc:     r.BuyAndHoldResultPerc,
		Trades:                   r.Trades,
	}
}

// WriteResultSummary writes the flat view of a result to a YAML file.
func WriteResultSummary(path string, result *BacktestResult) error {
	// Marshal the struct to YAML
	data, err := yaml.Marshal(result.Summary())
	if err != nil {
		return fmt.Errorf("failed to marshal result summary to YAML: %w", err)
	}

	// Write the YAML data to the file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result summary to file: %w", err)
	}

	return nil
}
