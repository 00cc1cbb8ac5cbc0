package types

// TradeSide identifies which side of the market a trade was on.
type TradeSide string

const (
	TradeSideLong  TradeSide = "long"
	TradeSideShort TradeSide = "short"
)

// Trade is an immutable record of one completed long or short round-trip.
// It is created when a position is closed and never mutated afterwards.
type Trade struct {
	Side TradeSide `json:"side" yaml:"side"`
	// EntryPrice is the reference market price at position open, before
	// fee and slippage adjustment.
	EntryPrice float64 `json:"entry_price" yaml:"entry_price"`
	// ExitPrice is the reference market price at position close.
	ExitPrice float64 `json:"exit_price" yaml:"exit_price"`
	// OpenTime and CloseTime are bar open times in epoch milliseconds.
	OpenTime  int64 `json:"open_time" yaml:"open_time"`
	CloseTime int64 `json:"close_time" yaml:"close_time"`
	// Quantity is the realized position size in asset units.
	Quantity float64 `json:"quantity" yaml:"quantity"`
	// NetResult is the realized profit or loss in account currency,
	// after fees and slippage on both legs.
	NetResult float64 `json:"net_result" yaml:"net_result"`
	// PercentResult is the realized return in percent.
	PercentResult float64 `json:"percent_result" yaml:"percent_result"`
}
