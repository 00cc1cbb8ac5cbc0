package engine

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Ledger owns the account state of one backtest run: cash, long position
// size, short debt, the completed trade log and the balance history. It is
// the only place positions are opened, closed and marked to market, so every
// invariant check lives here. A long and a short may be open at the same
// time; the entry operations gate only on their own side.
type Ledger struct {
	cash      float64
	position  float64
	shortDebt float64

	feeMultiplier      float64
	slippageMultiplier float64

	longEntryPrice float64
	longEntryCost  float64
	longEntryTime  int64

	shortEntryPrice    float64
	shortEntryProceeds float64
	shortEntryTime     int64

	trades  []types.Trade
	history []types.BalanceSnapshot
}

// NewLedger creates a ledger holding the start balance as cash. The fee and
// slippage percentages are converted into the retained-value multipliers
// applied to every transaction leg.
func NewLedger(startBalance float64, feesPercent float64, slippagePercent float64) *Ledger {
	return &Ledger{
		cash:               startBalance,
		feeMultiplier:      1 - feesPercent/100,
		slippageMultiplier: 1 - slippagePercent/100,
	}
}

// friction is the combined multiplicative effect of fee and slippage on one
// transaction leg. It is applied exactly once per leg, never compounded.
func (l *Ledger) friction() float64 {
	return l.feeMultiplier * l.slippageMultiplier
}

// UpdateBalance appends a balance snapshot using mark-to-market valuation of
// any open exposure. Called exactly once per processed row, before any
// open or close action for that row.
func (l *Ledger) UpdateBalance(price float64, timestamp int64) error {
	total := l.cash + l.position*price*l.friction()

	if l.shortDebt > 0 {
		total -= l.shortDebt * price / l.friction()
	}

	if err := l.checkFinite(total); err != nil {
		return err
	}

	l.history = append(l.history, types.BalanceSnapshot{
		Timestamp: timestamp,
		Balance:   total,
	})

	return nil
}

// GoLong converts all available cash into a long position. Fees and slippage
// strictly increase the effective purchase price.
func (l *Ledger) GoLong(price float64, timestamp int64) error {
	if l.cash <= 0 {
		return errors.New(errors.ErrCodeNoCashAvailable, "go_long requires positive cash")
	}

	effectivePrice := price / l.friction()
	size := l.cash / effectivePrice

	if err := l.checkFinite(size); err != nil {
		return err
	}

	l.position = size
	l.longEntryPrice = price
	l.longEntryCost = l.cash
	l.longEntryTime = timestamp
	l.cash = 0

	return nil
}

// CloseLong sells the entire long position. Fees and slippage strictly
// decrease the effective sale proceeds. Appends one completed trade.
func (l *Ledger) CloseLong(price float64, timestamp int64) error {
	if l.position <= 0 {
		return errors.New(errors.ErrCodeNoPositionOpen, "close_long requires an open long position")
	}

	proceeds := l.position * price * l.friction()

	if err := l.checkFinite(proceeds); err != nil {
		return err
	}

	l.trades = append(l.trades, types.Trade{
		Side:          types.TradeSideLong,
		EntryPrice:    l.longEntryPrice,
		ExitPrice:     price,
		OpenTime:      l.longEntryTime,
		CloseTime:     timestamp,
		Quantity:      l.position,
		NetResult:     proceeds - l.longEntryCost,
		PercentResult: (proceeds/l.longEntryCost - 1) * 100,
	})

	l.cash += proceeds
	l.position = 0
	l.longEntryPrice = 0
	l.longEntryCost = 0
	l.longEntryTime = 0

	return nil
}

// GoShort borrows and sells the maximum size fundable by current cash. The
// sale proceeds are added to cash and held as collateral. With no cash the
// borrow sizes to zero and the debt gate stays open.
func (l *Ledger) GoShort(price float64, timestamp int64) error {
	if l.shortDebt > 0 {
		return errors.New(errors.ErrCodeShortAlreadyOpen, "go_short requires no open short debt")
	}

	size := l.cash / price
	proceeds := size * price * l.friction()

	if err := l.checkFinite(proceeds); err != nil {
		return err
	}

	l.shortDebt = size
	l.shortEntryPrice = price
	l.shortEntryProceeds = proceeds
	l.shortEntryTime = timestamp
	l.cash += proceeds

	return nil
}

// CloseShort repurchases the borrowed size at the current price. Fees and
// slippage strictly increase the buy-back cost. Appends one completed trade.
func (l *Ledger) CloseShort(price float64, timestamp int64) error {
	if l.shortDebt <= 0 {
		return errors.New(errors.ErrCodeNoPositionOpen, "close_short requires open short debt")
	}

	cost := l.shortDebt * price / l.friction()

	if err := l.checkFinite(cost); err != nil {
		return err
	}

	cash := l.cash - cost
	if cash < 0 {
		return errors.Newf(errors.ErrCodeInvariantViolation, "short buy-back cost %f exceeds cash %f", cost, l.cash)
	}

	l.trades = append(l.trades, types.Trade{
		Side:          types.TradeSideShort,
		EntryPrice:    l.shortEntryPrice,
		ExitPrice:     price,
		OpenTime:      l.shortEntryTime,
		CloseTime:     timestamp,
		Quantity:      l.shortDebt,
		NetResult:     l.shortEntryProceeds - cost,
		PercentResult: (l.shortEntryProceeds/cost - 1) * 100,
	})

	l.cash = cash
	l.shortDebt = 0
	l.shortEntryPrice = 0
	l.shortEntryProceeds = 0
	l.shortEntryTime = 0

	return nil
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	return l.cash
}

// Position returns the current long position size.
func (l *Ledger) Position() float64 {
	return l.position
}

// ShortDebt returns the currently owed short size.
func (l *Ledger) ShortDebt() float64 {
	return l.shortDebt
}

// Trades returns the completed trade log in close order.
func (l *Ledger) Trades() []types.Trade {
	return l.trades
}

// History returns the per-row balance history.
func (l *Ledger) History() []types.BalanceSnapshot {
	return l.history
}

func (l *Ledger) checkFinite(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.Newf(errors.ErrCodeNonFiniteValue, "ledger arithmetic produced a non-finite value: %f", value)
	}

	return nil
}
