package indicator

import (
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func (suite *IndicatorTestSuite) rows(prices ...float64) []types.Row {
	rows := make([]types.Row, 0, len(prices))

	for i, price := range prices {
		rows = append(rows, types.Row{
			Timestamp: int64(i) * 60000,
			Price:     price,
			Fields:    map[string]any{"close_price": price},
		})
	}

	return rows
}

func (suite *IndicatorTestSuite) TestNewUnknownKind() {
	_, err := New(Request{Kind: "macd", Period: 12})

	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidIndicator))
}

func (suite *IndicatorTestSuite) TestNewInvalidPeriod() {
	_, err := New(Request{Kind: "sma", Period: 0})

	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidIndicator))
}

func (suite *IndicatorTestSuite) TestSMAValues() {
	rows := suite.rows(100, 110, 120, 90)

	sma := NewSMA(2)
	suite.Equal("sma_2", sma.Name())
	suite.NoError(sma.Apply(rows))

	// First row averages only itself, then a sliding two-row window.
	suite.InDelta(100.0, rows[0].Fields["sma_2"].(float64), 1e-9)
	suite.InDelta(105.0, rows[1].Fields["sma_2"].(float64), 1e-9)
	suite.InDelta(115.0, rows[2].Fields["sma_2"].(float64), 1e-9)
	suite.InDelta(105.0, rows[3].Fields["sma_2"].(float64), 1e-9)
}

func (suite *IndicatorTestSuite) TestSMAPeriodLongerThanSeries() {
	rows := suite.rows(100, 110)

	suite.NoError(NewSMA(10).Apply(rows))

	suite.InDelta(100.0, rows[0].Fields["sma_10"].(float64), 1e-9)
	suite.InDelta(105.0, rows[1].Fields["sma_10"].(float64), 1e-9)
}

func (suite *IndicatorTestSuite) TestEMAValues() {
	rows := suite.rows(100, 110, 120)

	ema := NewEMA(3)
	suite.Equal("ema_3", ema.Name())
	suite.NoError(ema.Apply(rows))

	// Seeded with the first price, multiplier 2/(period+1) = 0.5.
	suite.InDelta(100.0, rows[0].Fields["ema_3"].(float64), 1e-9)
	suite.InDelta(105.0, rows[1].Fields["ema_3"].(float64), 1e-9)
	suite.InDelta(112.5, rows[2].Fields["ema_3"].(float64), 1e-9)
}

func (suite *IndicatorTestSuite) TestRSINeutralWarmup() {
	rows := suite.rows(100, 110, 105, 120, 115)

	rsi := NewRSI(3)
	suite.Equal("rsi_3", rsi.Name())
	suite.NoError(rsi.Apply(rows))

	for i := 0; i < 3; i++ {
		suite.Equal(50.0, rows[i].Fields["rsi_3"].(float64))
	}

	value := rows[3].Fields["rsi_3"].(float64)
	suite.Greater(value, 0.0)
	suite.Less(value, 100.0)
}

func (suite *IndicatorTestSuite) TestRSIAllGains() {
	rows := suite.rows(100, 110, 120, 130, 140, 150)

	suite.NoError(NewRSI(3).Apply(rows))

	suite.Equal(100.0, rows[5].Fields["rsi_3"].(float64))
}

func (suite *IndicatorTestSuite) TestEnrichAppliesAllRequests() {
	rows := suite.rows(100, 110, 120)

	err := Enrich(rows, []Request{
		{Kind: "sma", Period: 2},
		{Kind: "ema", Period: 3},
	})
	suite.NoError(err)

	suite.Contains(rows[0].Fields, "sma_2")
	suite.Contains(rows[0].Fields, "ema_3")
}

func (suite *IndicatorTestSuite) TestEnrichFailsOnUnknownKind() {
	rows := suite.rows(100, 110)

	err := Enrich(rows, []Request{{Kind: "atr", Period: 14}})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidIndicator))
}
