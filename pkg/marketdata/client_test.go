package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ClientTestSuite struct {
	suite.Suite
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (suite *ClientTestSuite) validConfig() ClientConfig {
	return ClientConfig{
		ProviderType: ProviderBinance,
		WriterType:   WriterDuckDB,
		DataPath:     suite.T().TempDir(),
	}
}

func (suite *ClientTestSuite) TestNewClient() {
	client, err := NewClient(suite.validConfig(), nil)

	suite.NoError(err)
	suite.NotNil(client)
}

func (suite *ClientTestSuite) TestNewClientUnknownProvider() {
	config := suite.validConfig()
	config.ProviderType = "polygon"

	_, err := NewClient(config, nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ClientTestSuite) TestNewClientMissingDataPath() {
	config := suite.validConfig()
	config.DataPath = ""

	_, err := NewClient(config, nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ClientTestSuite) TestDownloadValidatesParams() {
	client, err := NewClient(suite.validConfig(), nil)
	suite.Require().NoError(err)

	// End date before start date must be rejected before any network call.
	_, err = client.Download(context.Background(), DownloadParams{
		Symbol:    "BTCUSDT",
		StartDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:  "1h",
	})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ClientTestSuite) TestDownloadRejectsUnknownInterval() {
	client, err := NewClient(suite.validConfig(), nil)
	suite.Require().NoError(err)

	_, err = client.Download(context.Background(), DownloadParams{
		Symbol:    "BTCUSDT",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Interval:  "7m",
	})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidInterval))
}
