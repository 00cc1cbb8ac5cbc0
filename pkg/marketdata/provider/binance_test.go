package provider

import (
	"context"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type BinanceProviderTestSuite struct {
	suite.Suite
}

func TestBinanceProviderSuite(t *testing.T) {
	suite.Run(t, new(BinanceProviderTestSuite))
}

// stubWriter records writes without touching disk.
type stubWriter struct {
	initialized bool
	klines      []types.Kline
}

func (w *stubWriter) Initialize() error {
	w.initialized = true

	return nil
}

func (w *stubWriter) Write(kline types.Kline) error {
	w.klines = append(w.klines, kline)

	return nil
}

func (w *stubWriter) Finalize() (string, error) {
	return "stub.parquet", nil
}

func (suite *BinanceProviderTestSuite) TestDownloadRejectsUnknownInterval() {
	client, err := NewBinanceClient()
	suite.Require().NoError(err)

	client.ConfigWriter(&stubWriter{})

	_, err = client.Download(
		context.Background(),
		"BTCUSDT",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		"2m",
		nil,
	)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidInterval))
}

func (suite *BinanceProviderTestSuite) TestDownloadRequiresWriter() {
	client, err := NewBinanceClient()
	suite.Require().NoError(err)

	_, err = client.Download(
		context.Background(),
		"BTCUSDT",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		"1h",
		nil,
	)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDownloadFailed))
}

func (suite *BinanceProviderTestSuite) TestDownloadStopsOnCanceledContext() {
	client, err := NewBinanceClient()
	suite.Require().NoError(err)

	writer := &stubWriter{}
	client.ConfigWriter(writer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.Download(
		ctx,
		"BTCUSDT",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		"1h",
		nil,
	)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDownloadFailed))
	suite.True(writer.initialized)
	suite.Empty(writer.klines)
}
