// Package store persists completed backtest results to DuckDB, mirroring
// the platform's backtest and trade tables.
package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// Store owns the backtests and trades tables of one result database.
type Store struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewStore opens a result store at the given database path. Use ":memory:"
// for an ephemeral store.
func NewStore(path string, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSaveFailed, "failed to open result database", err)
	}

	return &Store{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the backtests and trades tables.
func (s *Store) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS backtests (
			id TEXT PRIMARY KEY,
			name TEXT,
			dataset_name TEXT,
			open_long_rule TEXT,
			open_short_rule TEXT,
			close_long_rule TEXT,
			close_short_rule TEXT,
			start_balance DOUBLE,
			end_balance DOUBLE,
			result_perc DOUBLE,
			profit_factor DOUBLE,
			gross_profit DOUBLE,
			gross_loss DOUBLE,
			trade_count INTEGER,
			share_of_winning_trades_perc DOUBLE,
			share_of_losing_trades_perc DOUBLE,
			best_trade_result_perc DOUBLE,
			worst_trade_result_perc DOUBLE,
			max_drawdown_perc DOUBLE,
			buy_and_hold_result_net DOUBLE,
			buy_and_hold_result_perc DOUBLE,
			balance_history TEXT,
			created_at TIMESTAMP
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSaveFailed, "failed to create backtests table", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			backtest_id TEXT,
			side TEXT,
			entry_price DOUBLE,
			exit_price DOUBLE,
			open_time BIGINT,
			close_time BIGINT,
			quantity DOUBLE,
			net_result DOUBLE,
			percent_result DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSaveFailed, "failed to create trades table", err)
	}

	return nil
}

// SaveResult persists one completed result and its trades in a transaction.
// It returns the generated backtest ID.
func (s *Store) SaveResult(result *types.BacktestResult) (string, error) {
	id := uuid.New().String()

	historyJSON, err := json.Marshal(result.BalanceHistory)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeSaveFailed, "failed to marshal balance history", err)
	}

	var profitFactor sql.NullFloat64

	if result.ProfitFactor.IsSome() {
		profitFactor = sql.NullFloat64{Float64: result.ProfitFactor.Unwrap(), Valid: true}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeSaveFailed, "failed to begin transaction", err)
	}

	insertBacktest := s.sq.
		Insert("backtests").
		Columns(
			"id", "name", "dataset_name",
			"open_long_rule", "open_short_rule", "close_long_rule", "close_short_rule",
			"start_balance", "end_balance", "result_perc",
			"profit_factor", "gross_profit", "gross_loss", "trade_count",
			"share_of_winning_trades_perc", "share_of_losing_trades_perc",
			"best_trade_result_perc", "worst_trade_result_perc",
			"max_drawdown_perc", "buy_and_hold_result_net", "buy_and_hold_result_perc",
			"balance_history", "created_at",
		).
		Values(
			id, result.Name, result.DatasetName,
			result.OpenLongRule, result.OpenShortRule, result.CloseLongRule, result.CloseShortRule,
			result.StartBalance, result.EndBalance, result.ResultPercent,
			profitFactor, result.GrossProfit, result.GrossLoss, result.TradeCount,
			result.ShareOfWinningTradesPerc, result.ShareOfLosingTradesPerc,
			result.BestTradeResultPerc, result.WorstTradeResultPerc,
			result.MaxDrawdownPerc, result.BuyAndHoldResultNet, result.BuyAndHoldResultPerc,
			string(historyJSON), time.Now().UTC(),
		).
		RunWith(tx)

	if _, err := insertBacktest.Exec(); err != nil {
		tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeSaveFailed, "failed to insert backtest", err)
	}

	for _, trade := range result.Trades {
		insertTrade := s.sq.
			Insert("trades").
			Columns(
				"backtest_id", "side", "entry_price", "exit_price",
				"open_time", "close_time", "quantity", "net_result", "percent_result",
			).
			Values(
				id, string(trade.Side), trade.EntryPrice, trade.ExitPrice,
				trade.OpenTime, trade.CloseTime, trade.Quantity, trade.NetResult, trade.PercentResult,
			).
			RunWith(tx)

		if _, err := insertTrade.Exec(); err != nil {
			tx.Rollback()

			return "", errors.Wrap(errors.ErrCodeSaveFailed, "failed to insert trade", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(errors.ErrCodeSaveFailed, "failed to commit transaction", err)
	}

	s.logger.Debug("Saved backtest result",
		zap.String("id", id),
		zap.Int("trades", len(result.Trades)),
	)

	return id, nil
}

// GetResult loads one persisted result by ID, including its balance history
// and trade log.
func (s *Store) GetResult(id string) (*types.BacktestResult, error) {
	query := s.sq.
		Select(backtestColumns()...).
		From("backtests").
		Where(squirrel.Eq{"id": id}).
		RunWith(s.db)

	result, err := scanBacktest(query.QueryRow())
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrCodeResultNotFound, "backtest %s not found", id)
	}

	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query backtest", err)
	}

	trades, err := s.GetTrades(id)
	if err != nil {
		return nil, err
	}

	result.Trades = trades

	return result, nil
}

// ListResults returns all persisted result summaries, newest first, without
// trades or balance history.
func (s *Store) ListResults() ([]types.BacktestResult, error) {
	query := s.sq.
		Select(backtestColumns()...).
		From("backtests").
		OrderBy("created_at DESC").
		RunWith(s.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query backtests", err)
	}
	defer rows.Close()

	var results []types.BacktestResult

	for rows.Next() {
		result, err := scanBacktest(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan backtest", err)
		}

		result.BalanceHistory = nil
		results = append(results, *result)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating backtests", err)
	}

	return results, nil
}

// GetTrades returns the trade log of one persisted result in close order.
func (s *Store) GetTrades(backtestID string) ([]types.Trade, error) {
	query := s.sq.
		Select(
			"side", "entry_price", "exit_price",
			"open_time", "close_time", "quantity", "net_result", "percent_result",
		).
		From("trades").
		Where(squirrel.Eq{"backtest_id": backtestID}).
		OrderBy("close_time ASC").
		RunWith(s.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var trade types.Trade

		var side string

		err := rows.Scan(
			&side,
			&trade.EntryPrice,
			&trade.ExitPrice,
			&trade.OpenTime,
			&trade.CloseTime,
			&trade.Quantity,
			&trade.NetResult,
			&trade.PercentResult,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		trade.Side = types.TradeSide(side)
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating trades", err)
	}

	return trades, nil
}

// Cleanup drops and recreates the tables.
func (s *Store) Cleanup() error {
	_, err := s.db.Exec(`
		DROP TABLE IF EXISTS trades;
		DROP TABLE IF EXISTS backtests;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to cleanup tables", err)
	}

	return s.Initialize()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func backtestColumns() []string {
	return []string{
		"id", "name", "dataset_name",
		"open_long_rule", "open_short_rule", "close_long_rule", "close_short_rule",
		"start_balance", "end_balance", "result_perc",
		"profit_factor", "gross_profit", "gross_loss", "trade_count",
		"share_of_winning_trades_perc", "share_of_losing_trades_perc",
		"best_trade_result_perc", "worst_trade_result_perc",
		"max_drawdown_perc", "buy_and_hold_result_net", "buy_and_hold_result_perc",
		"balance_history",
	}
}

// rowScanner matches both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBacktest(row rowScanner) (*types.BacktestResult, error) {
	var result types.BacktestResult

	var profitFactor sql.NullFloat64

	var historyJSON string

	err := row.Scan(
		&result.ID,
		&result.Name,
		&result.DatasetName,
		&result.OpenLongRule,
		&result.OpenShortRule,
		&result.CloseLongRule,
		&result.CloseShortRule,
		&result.StartBalance,
		&result.EndBalance,
		&result.ResultPercent,
		&profitFactor,
		&result.GrossProfit,
		&result.GrossLoss,
		&result.TradeCount,
		&result.ShareOfWinningTradesPerc,
		&result.ShareOfLosingTradesPerc,
		&result.BestTradeResultPerc,
		&result.WorstTradeResultPerc,
		&result.MaxDrawdownPerc,
		&result.BuyAndHoldResultNet,
		&result.BuyAndHoldResultPerc,
		&historyJSON,
	)
	if err != nil {
		return nil, err
	}

	if profitFactor.Valid {
		result.ProfitFactor = optional.Some(profitFactor.Float64)
	} else {
		result.ProfitFactor = optional.None[float64]()
	}

	if err := json.Unmarshal([]byte(historyJSON), &result.BalanceHistory); err != nil {
		return nil, err
	}

	return &result, nil
}
