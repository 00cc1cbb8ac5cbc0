package types

// Kline is one downloaded candlestick in the column layout the backtest
// datasets use.
type Kline struct {
	Symbol                  string  `json:"symbol"`
	KlineOpenTime           int64   `json:"kline_open_time"`
	OpenPrice               float64 `json:"open_price"`
	HighPrice               float64 `json:"high_price"`
	LowPrice                float64 `json:"low_price"`
	ClosePrice              float64 `json:"close_price"`
	Volume                  float64 `json:"volume"`
	KlineCloseTime          int64   `json:"kline_close_time"`
	QuoteAssetVolume        float64 `json:"quote_asset_volume"`
	NumberOfTrades          int64   `json:"number_of_trades"`
	TakerBuyBaseAssetVolume float64 `json:"taker_buy_base_asset_volume"`
}
