package engine

import (
	"context"

	"github.com/moznion/go-optional"
	backtest "github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// BacktestEngineV1 drives the per-row simulation of one strategy over one
// time series. Each run owns an isolated ledger, so independent runs may
// execute concurrently; a single run is strictly sequential because every
// tick depends on the previous tick's ledger state.
type BacktestEngineV1 struct {
	config     StrategyConfig
	rules      *RuleSet
	log        *logger.Logger
	datasource datasource.DataSource
}

// NewBacktestEngineV1 creates an uninitialized engine.
func NewBacktestEngineV1() backtest.Engine {
	return &BacktestEngineV1{}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	parsed, err := ParseConfig(config)
	if err != nil {
		return err
	}

	b.config = parsed

	b.log, err = logger.NewLogger()
	if err != nil {
		return err
	}

	b.rules, err = NewRuleSet(b.config)
	if err != nil {
		return err
	}

	b.log.Debug("Backtest engine initialized",
		zap.String("name", b.config.Name),
		zap.Float64("start_balance", b.config.StartBalance),
	)

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(dataSource datasource.DataSource) error {
	b.datasource = dataSource

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	return b.config.GenerateSchemaJSON()
}

// Run implements engine.Engine. The row sequence is fully materialized
// before the loop starts; no I/O happens inside it.
func (b *BacktestEngineV1) Run(ctx context.Context, onRow optional.Option[backtest.OnRowCallback]) (*types.BacktestResult, error) {
	if err := b.preRunCheck(); err != nil {
		return nil, err
	}

	rows, err := b.materializeRows()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDataset, "dataset contains no rows")
	}

	if err := indicator.Enrich(rows, toIndicatorRequests(b.config.Indicators)); err != nil {
		return nil, err
	}

	ledger := NewLedger(b.config.StartBalance, b.config.TradingFeesPercent, b.config.SlippagePercent)
	barsHeld := 0

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRunCanceled, "backtest run canceled", err)
		}

		isLastRow := i == len(rows)-1

		signals, err := b.rowSignals(row, isLastRow)
		if err != nil {
			return nil, errors.Wrapf(errors.GetCode(err), err, "rule evaluation failed at row %d", i)
		}

		if err := b.tick(ledger, row, signals, &barsHeld); err != nil {
			return nil, errors.Wrapf(errors.GetCode(err), err, "simulation failed at row %d", i)
		}

		if onRow.IsSome() {
			onRow.Unwrap()(i+1, len(rows))
		}
	}

	return b.buildResult(ledger, rows), nil
}

// rowSignals evaluates the rules for one row. On the last row entries are
// forced off and exits forced on, so the run always ends flat.
func (b *BacktestEngineV1) rowSignals(row types.Row, isLastRow bool) (Signals, error) {
	if isLastRow {
		return Signals{
			OpenLong:   false,
			OpenShort:  false,
			CloseLong:  true,
			CloseShort: true,
		}, nil
	}

	return b.rules.Evaluate(row)
}

// tick applies one row to the ledger in the fixed operation order: balance
// update, long close, short close, long open, short open. The bars-held
// counter increments with the balance update and resets only on a closing
// short or an opening long; once it reaches the configured bar limit both
// close signals are forced on.
func (b *BacktestEngineV1) tick(ledger *Ledger, row types.Row, signals Signals, barsHeld *int) error {
	if err := ledger.UpdateBalance(row.Price, row.Timestamp); err != nil {
		return err
	}

	*barsHeld++

	if b.config.UseTimeBasedClose && *barsHeld == b.config.MaxBarsUntilClose {
		signals.CloseLong = true
		signals.CloseShort = true
	}

	if ledger.Position() > 0 && signals.CloseLong {
		if err := ledger.CloseLong(row.Price, row.Timestamp); err != nil {
			return err
		}
	}

	if ledger.ShortDebt() > 0 && signals.CloseShort && b.config.UseShortSelling {
		if err := ledger.CloseShort(row.Price, row.Timestamp); err != nil {
			return err
		}

		*barsHeld = 0
	}

	if ledger.Cash() > 0 && signals.OpenLong {
		if err := ledger.GoLong(row.Price, row.Timestamp); err != nil {
			return err
		}

		*barsHeld = 0
	}

	if ledger.ShortDebt() == 0 && signals.OpenShort && b.config.UseShortSelling {
		if err := ledger.GoShort(row.Price, row.Timestamp); err != nil {
			return err
		}
	}

	return nil
}

func (b *BacktestEngineV1) materializeRows() ([]types.Row, error) {
	count, err := b.datasource.Count()
	if err != nil {
		return nil, err
	}

	rows := make([]types.Row, 0, count)

	for row, err := range b.datasource.ReadAll(b.config.TimeColumn, b.config.PriceColumn) {
		if err != nil {
			return nil, err
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func (b *BacktestEngineV1) buildResult(ledger *Ledger, rows []types.Row) *types.BacktestResult {
	trades := ledger.Trades()
	history := ledger.History()

	profitFactor, grossProfit, grossLoss := ProfitFactor(trades)
	winShare, lossShare, bestTrade, worstTrade := TradeDetails(trades)
	buyAndHoldNet, buyAndHoldPerc := BuyAndHold(b.config.StartBalance, rows[0].Price, rows[len(rows)-1].Price)

	endBalance := ledger.Cash()

	return &types.BacktestResult{
		Name:                     b.config.Name,
		DatasetName:              b.datasource.Name(),
		StartBalance:             b.config.StartBalance,
		EndBalance:               endBalance,
		ResultPercent:            (endBalance/b.config.StartBalance - 1) * 100,
		ProfitFactor:             profitFactor,
		GrossProfit:              grossProfit,
		GrossLoss:                grossLoss,
		TradeCount:               len(trades),
		ShareOfWinningTradesPerc: winShare,
		ShareOfLosingTradesPerc:  lossShare,
		BestTradeResultPerc:      bestTrade,
		WorstTradeResultPerc:     worstTrade,
		MaxDrawdownPerc:          MaxDrawdown(history),
		BuyAndHoldResultNet:      buyAndHoldNet,
		BuyAndHoldResultPerc:     buyAndHoldPerc,
		OpenLongRule:             b.config.OpenLongRule,
		OpenShortRule:            b.config.OpenShortRule,
		CloseLongRule:            b.config.CloseLongRule,
		CloseShortRule:           b.config.CloseShortRule,
		Trades:                   trades,
		BalanceHistory:           history,
	}
}

func (b *BacktestEngineV1) preRunCheck() error {
	if b.rules == nil {
		return errors.New(errors.ErrCodeInvalidConfiguration, "engine is not initialized")
	}

	if b.datasource == nil {
		return errors.New(errors.ErrCodeInvalidConfiguration, "no datasource set")
	}

	return nil
}

func toIndicatorRequests(configs []IndicatorConfig) []indicator.Request {
	requests := make([]indicator.Request, 0, len(configs))

	for _, config := range configs {
		requests = append(requests, indicator.Request{
			Kind:   config.Kind,
			Period: config.Period,
		})
	}

	return requests
}
