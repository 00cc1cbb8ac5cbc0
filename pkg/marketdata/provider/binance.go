package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/writer"
)

// klinesPageSize is the Binance REST API page limit for kline requests.
const klinesPageSize = 500

// validIntervals lists the intervals the Binance kline endpoint accepts.
// Ref: https://binance-docs.github.io/apidocs/spot/en/#kline-candlestick-data
var validIntervals = map[string]bool{
	"1m": true, "3m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "2h": true, "4h": true, "6h": true, "8h": true, "12h": true,
	"1d": true, "3d": true, "1w": true, "1M": true,
}

// BinanceClient implements Provider on top of the Binance spot REST API.
type BinanceClient struct {
	client *binance.Client
	writer writer.MarketDataWriter
}

// NewBinanceClient creates a Binance provider using public market data
// endpoints, so no API key is required.
func NewBinanceClient() (Provider, error) {
	client := binance.NewClient("", "")

	return &BinanceClient{
		client: client,
		writer: nil,
	}, nil
}

// ConfigWriter implements Provider.
func (c *BinanceClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download implements Provider. It pages through the kline endpoint using
// the close time of the last kline plus one millisecond as the next start,
// so no bar is fetched twice.
func (c *BinanceClient) Download(ctx context.Context, symbol string, startDate time.Time, endDate time.Time, interval string, onProgress OnDownloadProgress) (string, error) {
	if !validIntervals[interval] {
		return "", errors.Newf(errors.ErrCodeInvalidInterval, "unsupported Binance interval: %s", interval)
	}

	if c.writer == nil {
		return "", errors.New(errors.ErrCodeDownloadFailed, "writer is not configured")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeDownloadFailed, "failed to initialize writer", err)
	}

	// Binance API uses milliseconds for timestamps
	startTimeMillis := startDate.UnixMilli()
	endTimeMillis := endDate.UnixMilli()

	currentStartTime := startTimeMillis

	for {
		if err := ctx.Err(); err != nil {
			return "", errors.Wrap(errors.ErrCodeDownloadFailed, "download canceled", err)
		}

		klines, err := c.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(currentStartTime).
			EndTime(endTimeMillis).
			Limit(klinesPageSize).
			Do(ctx)
		if err != nil {
			return "", errors.Wrapf(errors.ErrCodeDownloadFailed, err, "failed to fetch %s klines from Binance", symbol)
		}

		if onProgress != nil {
			onProgress(
				float64(currentStartTime-startTimeMillis),
				float64(endTimeMillis-startTimeMillis),
				fmt.Sprintf("Downloading %s klines from Binance", symbol),
			)
		}

		if err := c.writeKlines(symbol, klines); err != nil {
			return "", err
		}

		// Last page: empty or short response.
		if len(klines) < klinesPageSize {
			break
		}

		// Advance past the last kline to avoid fetching it twice.
		lastKline := klines[len(klines)-1]
		currentStartTime = lastKline.CloseTime + 1

		if currentStartTime >= endTimeMillis {
			break
		}
	}

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeDownloadFailed, "failed to finalize writer", err)
	}

	return outputPath, nil
}

// writeKlines converts one page of Binance klines into the dataset layout
// and hands them to the writer.
func (c *BinanceClient) writeKlines(symbol string, klines []*binance.Kline) error {
	for _, k := range klines {
		openPrice, _ := strconv.ParseFloat(k.Open, 64)
		highPrice, _ := strconv.ParseFloat(k.High, 64)
		lowPrice, _ := strconv.ParseFloat(k.Low, 64)
		closePrice, _ := strconv.ParseFloat(k.Close, 64)
		volume, _ := strconv.ParseFloat(k.Volume, 64)
		quoteVolume, _ := strconv.ParseFloat(k.QuoteAssetVolume, 64)
		takerBuyVolume, _ := strconv.ParseFloat(k.TakerBuyBaseAssetVolume, 64)

		kline := types.Kline{
			Symbol:                  symbol,
			KlineOpenTime:           k.OpenTime,
			OpenPrice:               openPrice,
			HighPrice:               highPrice,
			LowPrice:                lowPrice,
			ClosePrice:              closePrice,
			Volume:                  volume,
			KlineCloseTime:          k.CloseTime,
			QuoteAssetVolume:        quoteVolume,
			NumberOfTrades:          k.TradeNum,
			TakerBuyBaseAssetVolume: takerBuyVolume,
		}

		if err := c.writer.Write(kline); err != nil {
			return err
		}
	}

	return nil
}
