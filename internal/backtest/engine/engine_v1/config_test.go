package engine

import (
	"encoding/json"
	"testing"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestEmptyConfig() {
	config := EmptyConfig()

	suite.Equal(0.0, config.StartBalance)
	suite.Equal(UnlimitedBarsUntilClose, config.MaxBarsUntilClose)
	suite.False(config.UseShortSelling)
	suite.False(config.UseTimeBasedClose)
	suite.Nil(config.Indicators)
}

func (suite *ConfigTestSuite) TestTestConfig() {
	config := TestConfig()

	suite.Equal(10000.0, config.StartBalance)
	suite.Equal("close_price", config.PriceColumn)
	suite.Equal("kline_open_time", config.TimeColumn)
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestParseConfigComplete() {
	yamlData := `
name: sma crossover
start_balance: 50000
trading_fees_percent: 0.1
slippage_percent: 0.05
open_long_rule: "sma_10 > sma_20"
open_short_rule: "sma_10 < sma_20"
close_long_rule: "sma_10 < sma_20"
close_short_rule: "sma_10 > sma_20"
use_short_selling: true
use_time_based_close: true
max_bars_until_close: 48
price_column: close_price
time_column: kline_open_time
indicators:
  - kind: sma
    period: 10
  - kind: sma
    period: 20
`

	config, err := ParseConfig(yamlData)
	suite.NoError(err)
	suite.Equal("sma crossover", config.Name)
	suite.Equal(50000.0, config.StartBalance)
	suite.Equal(0.1, config.TradingFeesPercent)
	suite.True(config.UseShortSelling)
	suite.Equal(48, config.MaxBarsUntilClose)
	suite.Len(config.Indicators, 2)
	suite.Equal("sma", config.Indicators[0].Kind)
	suite.Equal(10, config.Indicators[0].Period)
}

func (suite *ConfigTestSuite) TestParseConfigDefaultsMaxBars() {
	config, err := ParseConfig(`
start_balance: 10000
open_long_rule: "false"
open_short_rule: "false"
close_long_rule: "false"
close_short_rule: "false"
price_column: close_price
time_column: kline_open_time
`)

	suite.NoError(err)
	suite.Equal(UnlimitedBarsUntilClose, config.MaxBarsUntilClose)
}

func (suite *ConfigTestSuite) TestParseConfigInvalidYAML() {
	_, err := ParseConfig("start_balance: [")

	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestValidateRejectsZeroStartBalance() {
	config := TestConfig()
	config.StartBalance = 0

	suite.Error(config.Validate())
}

func (suite *ConfigTestSuite) TestValidateRejectsFullFee() {
	config := TestConfig()
	config.TradingFeesPercent = 100

	suite.Error(config.Validate())
}

func (suite *ConfigTestSuite) TestValidateRejectsNegativeSlippage() {
	config := TestConfig()
	config.SlippagePercent = -1

	suite.Error(config.Validate())
}

func (suite *ConfigTestSuite) TestValidateRequiresRules() {
	config := TestConfig()
	config.OpenLongRule = ""

	suite.Error(config.Validate())
}

func (suite *ConfigTestSuite) TestValidateRejectsZeroMaxBars() {
	config := TestConfig()
	config.MaxBarsUntilClose = 0

	err := config.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidMaxBars))
}

func (suite *ConfigTestSuite) TestValidateTimeBasedCloseNeedsMaxBars() {
	config := TestConfig()
	config.UseTimeBasedClose = true

	err := config.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidMaxBars))
}

func (suite *ConfigTestSuite) TestValidateRejectsUnknownIndicator() {
	config := TestConfig()
	config.Indicators = []IndicatorConfig{{Kind: "macd", Period: 12}}

	suite.Error(config.Validate())
}

func (suite *ConfigTestSuite) TestFeeAndSlippageMultipliers() {
	config := TestConfig()
	config.TradingFeesPercent = 1
	config.SlippagePercent = 0.5

	suite.InDelta(0.99, config.FeeMultiplier(), 1e-9)
	suite.InDelta(0.995, config.SlippageMultiplier(), 1e-9)
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	config := EmptyConfig()
	schema := config.GenerateSchema()

	suite.NotNil(schema)
	suite.Equal("strategy-config", schema.Title)
	suite.Equal("http://json-schema.org/draft-07/schema#", schema.Version)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := EmptyConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	suite.NoError(err)
	suite.NotEmpty(schemaJSON)

	var result map[string]interface{}
	suite.NoError(json.Unmarshal([]byte(schemaJSON), &result))
	suite.Equal("strategy-config", result["title"])
	suite.Contains(result, "properties")
}
