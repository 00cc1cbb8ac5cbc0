package engine

import (
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/stretchr/testify/suite"
)

type MetricsTestSuite struct {
	suite.Suite
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func (suite *MetricsTestSuite) TestProfitFactorMixedTrades() {
	trades := []types.Trade{
		{NetResult: 500},
		{NetResult: -200},
		{NetResult: 300},
		{NetResult: -100},
	}

	profitFactor, grossProfit, grossLoss := ProfitFactor(trades)

	suite.InDelta(800.0, grossProfit, 1e-9)
	suite.InDelta(300.0, grossLoss, 1e-9)
	suite.True(profitFactor.IsSome())
	suite.InDelta(800.0/300.0, profitFactor.Unwrap(), 1e-9)
}

func (suite *MetricsTestSuite) TestProfitFactorSentinelWithoutLosses() {
	trades := []types.Trade{
		{NetResult: 500},
		{NetResult: 300},
	}

	profitFactor, grossProfit, grossLoss := ProfitFactor(trades)

	suite.True(profitFactor.IsNone())
	suite.InDelta(800.0, grossProfit, 1e-9)
	suite.Equal(0.0, grossLoss)
}

func (suite *MetricsTestSuite) TestProfitFactorEmptyTradeLog() {
	profitFactor, grossProfit, grossLoss := ProfitFactor(nil)

	suite.True(profitFactor.IsNone())
	suite.Equal(0.0, grossProfit)
	suite.Equal(0.0, grossLoss)
}

func (suite *MetricsTestSuite) TestTradeDetails() {
	trades := []types.Trade{
		{PercentResult: 10},
		{PercentResult: -5},
		{PercentResult: 25},
		{PercentResult: -15},
	}

	winShare, lossShare, best, worst := TradeDetails(trades)

	suite.InDelta(50.0, winShare, 1e-9)
	suite.InDelta(50.0, lossShare, 1e-9)
	suite.Equal(25.0, best)
	suite.Equal(-15.0, worst)
}

func (suite *MetricsTestSuite) TestTradeDetailsEmpty() {
	winShare, lossShare, best, worst := TradeDetails(nil)

	suite.Equal(0.0, winShare)
	suite.Equal(0.0, lossShare)
	suite.Equal(0.0, best)
	suite.Equal(0.0, worst)
}

func (suite *MetricsTestSuite) TestMaxDrawdownMonotonicRise() {
	history := []types.BalanceSnapshot{
		{Timestamp: 1, Balance: 10000},
		{Timestamp: 2, Balance: 10500},
		{Timestamp: 3, Balance: 11000},
	}

	suite.Equal(0.0, MaxDrawdown(history))
}

func (suite *MetricsTestSuite) TestMaxDrawdownWithDip() {
	history := []types.BalanceSnapshot{
		{Timestamp: 1, Balance: 10000},
		{Timestamp: 2, Balance: 12000},
		{Timestamp: 3, Balance: 9000},
		{Timestamp: 4, Balance: 11000},
	}

	// Peak 12000 to trough 9000 is a 25% decline.
	suite.InDelta(25.0, MaxDrawdown(history), 1e-9)
}

func (suite *MetricsTestSuite) TestMaxDrawdownEmptyHistory() {
	suite.Equal(0.0, MaxDrawdown(nil))
}

func (suite *MetricsTestSuite) TestBuyAndHold() {
	net, percent := BuyAndHold(10000, 100, 120)

	suite.InDelta(2000.0, net, 1e-9)
	suite.InDelta(20.0, percent, 1e-9)
}

func (suite *MetricsTestSuite) TestBuyAndHoldZeroFirstPrice() {
	net, percent := BuyAndHold(10000, 0, 120)

	suite.Equal(0.0, net)
	suite.Equal(0.0, percent)
}
