package engine

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"gopkg.in/yaml.v2"
)

// UnlimitedBarsUntilClose disables the time-based close bar limit.
const UnlimitedBarsUntilClose = -1

// IndicatorConfig requests one computed indicator column to be added to the
// series before the simulation starts.
type IndicatorConfig struct {
	// Kind is the indicator kind: sma, ema or rsi.
	Kind string `yaml:"kind" json:"kind" jsonschema:"title=Kind,description=Indicator kind (sma, ema or rsi),enum=sma,enum=ema,enum=rsi" validate:"required,oneof=sma ema rsi"`
	// Period is the lookback window in bars.
	Period int `yaml:"period" json:"period" jsonschema:"title=Period,description=Lookback window in bars,minimum=1" validate:"gt=0"`
}

// StrategyConfig configures one backtest run.
type StrategyConfig struct {
	// Name labels the run in results and persistence.
	Name string `yaml:"name" json:"name" jsonschema:"title=Name,description=Human readable name of the run"`

	StartBalance       float64 `yaml:"start_balance" json:"start_balance" jsonschema:"title=Start Balance,description=Starting account balance,minimum=0" validate:"gt=0"`
	TradingFeesPercent float64 `yaml:"trading_fees_percent" json:"trading_fees_percent" jsonschema:"title=Trading Fees Percent,description=Fee percentage charged per transaction,minimum=0,maximum=100" validate:"gte=0,lt=100"`
	SlippagePercent    float64 `yaml:"slippage_percent" json:"slippage_percent" jsonschema:"title=Slippage Percent,description=Slippage percentage applied per transaction,minimum=0,maximum=100" validate:"gte=0,lt=100"`

	// The four rule expressions are boolean predicates over the named
	// columns of each row, evaluated in a sandboxed expression language.
	OpenLongRule   string `yaml:"open_long_rule" json:"open_long_rule" jsonschema:"title=Open Long Rule,description=Predicate that opens a long position" validate:"required"`
	OpenShortRule  string `yaml:"open_short_rule" json:"open_short_rule" jsonschema:"title=Open Short Rule,description=Predicate that opens a short position" validate:"required"`
	CloseLongRule  string `yaml:"close_long_rule" json:"close_long_rule" jsonschema:"title=Close Long Rule,description=Predicate that closes an open long position" validate:"required"`
	CloseShortRule string `yaml:"close_short_rule" json:"close_short_rule" jsonschema:"title=Close Short Rule,description=Predicate that closes an open short position" validate:"required"`

	UseShortSelling   bool `yaml:"use_short_selling" json:"use_short_selling" jsonschema:"title=Use Short Selling,description=Allow short positions"`
	UseTimeBasedClose bool `yaml:"use_time_based_close" json:"use_time_based_close" jsonschema:"title=Use Time Based Close,description=Force close positions after a number of bars"`
	// MaxBarsUntilClose is the bar count that triggers a forced close when
	// UseTimeBasedClose is set. -1 means unlimited.
	MaxBarsUntilClose int `yaml:"max_bars_until_close" json:"max_bars_until_close" jsonschema:"title=Max Bars Until Close,description=Bars held before a forced close (-1 for unlimited)"`

	PriceColumn string `yaml:"price_column" json:"price_column" jsonschema:"title=Price Column,description=Name of the price column" validate:"required"`
	TimeColumn  string `yaml:"time_column" json:"time_column" jsonschema:"title=Time Column,description=Name of the timeseries column" validate:"required"`

	// Indicators are computed over the series before the run so rules can
	// reference columns like sma_20 even when the dataset lacks them.
	Indicators []IndicatorConfig `yaml:"indicators" json:"indicators" jsonschema:"title=Indicators,description=Indicator columns computed before the run" validate:"dive"`
}

// ParseConfig parses and validates a YAML strategy configuration.
func ParseConfig(content string) (StrategyConfig, error) {
	config := EmptyConfig()

	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return StrategyConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse strategy config", err)
	}

	if err := config.Validate(); err != nil {
		return StrategyConfig{}, err
	}

	return config, nil
}

// Validate checks the configuration against spec bounds.
func (c *StrategyConfig) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid strategy config", err)
	}

	if c.MaxBarsUntilClose != UnlimitedBarsUntilClose && c.MaxBarsUntilClose <= 0 {
		return errors.Newf(errors.ErrCodeInvalidMaxBars, "max_bars_until_close must be positive or -1, got %d", c.MaxBarsUntilClose)
	}

	if c.UseTimeBasedClose && c.MaxBarsUntilClose == UnlimitedBarsUntilClose {
		return errors.New(errors.ErrCodeInvalidMaxBars, "use_time_based_close requires max_bars_until_close to be set")
	}

	return nil
}

// FeeMultiplier is the fraction of value retained after the trading fee.
func (c *StrategyConfig) FeeMultiplier() float64 {
	return 1 - c.TradingFeesPercent/100
}

// SlippageMultiplier is the fraction of value retained after slippage.
func (c *StrategyConfig) SlippageMultiplier() float64 {
	return 1 - c.SlippagePercent/100
}

// GenerateSchema generates a JSON schema for the strategy configuration.
func (c *StrategyConfig) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}

	schema := reflector.Reflect(c)
	schema.Title = "strategy-config"
	schema.Description = "Configuration schema for one backtest run"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates a JSON schema string for the strategy configuration.
func (c *StrategyConfig) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// EmptyConfig returns a StrategyConfig with default values.
func EmptyConfig() StrategyConfig {
	return StrategyConfig{
		Name:              "",
		StartBalance:      0,
		OpenLongRule:      "",
		OpenShortRule:     "",
		CloseLongRule:     "",
		CloseShortRule:    "",
		MaxBarsUntilClose: UnlimitedBarsUntilClose,
		PriceColumn:       "",
		TimeColumn:        "",
		Indicators:        nil,
	}
}

// TestConfig returns a valid configuration used across tests.
func TestConfig() StrategyConfig {
	config := EmptyConfig()
	config.Name = "test"
	config.StartBalance = 10000
	config.OpenLongRule = "false"
	config.OpenShortRule = "false"
	config.CloseLongRule = "false"
	config.CloseShortRule = "false"
	config.PriceColumn = "close_price"
	config.TimeColumn = "kline_open_time"

	return config
}
