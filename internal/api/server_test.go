package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/store"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/stretchr/testify/suite"
)

type ServerTestSuite struct {
	suite.Suite
	server *Server
	store  *store.Store
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (suite *ServerTestSuite) SetupTest() {
	log := logger.NewNopLogger()

	resultStore, err := store.NewStore(":memory:", log)
	suite.Require().NoError(err)
	suite.Require().NoError(resultStore.Initialize())
	suite.store = resultStore

	datasetsDir := suite.T().TempDir()

	csvContent := `kline_open_time,close_price
0,100.0
60000,110.0
120000,105.0
`
	suite.Require().NoError(os.WriteFile(filepath.Join(datasetsDir, "sample.csv"), []byte(csvContent), 0644))

	suite.server = NewServer(":0", resultStore, datasetsDir, log)
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.store.Close()
}

func (suite *ServerTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader

	if body != nil {
		data, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, reader)
	recorder := httptest.NewRecorder()
	suite.server.Handler().ServeHTTP(recorder, request)

	return recorder
}

func (suite *ServerTestSuite) createRequest() CreateBacktestRequest {
	config := engine.TestConfig()
	config.OpenLongRule = "close_price == 100.0"
	config.CloseLongRule = "close_price == 110.0"

	return CreateBacktestRequest{
		Dataset: "sample.csv",
		Config:  config,
	}
}

func (suite *ServerTestSuite) TestCreateBacktest() {
	recorder := suite.do(http.MethodPost, "/api/backtests", suite.createRequest())

	suite.Require().Equal(http.StatusCreated, recorder.Code)

	var response struct {
		Data struct {
			ID            string  `json:"id"`
			EndBalance    float64 `json:"end_balance"`
			ResultPercent float64 `json:"result_percent"`
			TradeCount    int     `json:"trade_count"`
		} `json:"data"`
	}
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &response))

	suite.NotEmpty(response.Data.ID)
	suite.InDelta(11000.0, response.Data.EndBalance, 1e-6)
	suite.InDelta(10.0, response.Data.ResultPercent, 1e-6)
	suite.Equal(1, response.Data.TradeCount)
}

func (suite *ServerTestSuite) TestCreateBacktestInvalidConfig() {
	request := suite.createRequest()
	request.Config.StartBalance = -1

	recorder := suite.do(http.MethodPost, "/api/backtests", request)
	suite.Equal(http.StatusBadRequest, recorder.Code)
}

func (suite *ServerTestSuite) TestCreateBacktestBadRuleSyntax() {
	request := suite.createRequest()
	request.Config.OpenLongRule = "close_price >"

	recorder := suite.do(http.MethodPost, "/api/backtests", request)
	suite.Equal(http.StatusBadRequest, recorder.Code)
}

func (suite *ServerTestSuite) TestCreateBacktestUnknownDataset() {
	request := suite.createRequest()
	request.Dataset = "missing.csv"

	recorder := suite.do(http.MethodPost, "/api/backtests", request)
	suite.Equal(http.StatusNotFound, recorder.Code)
}

func (suite *ServerTestSuite) TestCreateBacktestRejectsTraversal() {
	request := suite.createRequest()
	request.Dataset = "../secrets.csv"

	recorder := suite.do(http.MethodPost, "/api/backtests", request)
	suite.Equal(http.StatusNotFound, recorder.Code)
}

func (suite *ServerTestSuite) TestListBacktests() {
	created := suite.do(http.MethodPost, "/api/backtests", suite.createRequest())
	suite.Require().Equal(http.StatusCreated, created.Code)

	recorder := suite.do(http.MethodGet, "/api/backtests", nil)
	suite.Require().Equal(http.StatusOK, recorder.Code)

	var response struct {
		Data []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &response))
	suite.Len(response.Data, 1)
	suite.NotEmpty(response.Data[0].ID)
}

func (suite *ServerTestSuite) TestGetBacktest() {
	created := suite.do(http.MethodPost, "/api/backtests", suite.createRequest())
	suite.Require().Equal(http.StatusCreated, created.Code)

	var createdResponse struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	suite.Require().NoError(json.Unmarshal(created.Body.Bytes(), &createdResponse))

	recorder := suite.do(http.MethodGet, fmt.Sprintf("/api/backtests/%s", createdResponse.Data.ID), nil)
	suite.Require().Equal(http.StatusOK, recorder.Code)

	var response struct {
		Data struct {
			ID          string `json:"id"`
			DatasetName string `json:"dataset_name"`
		} `json:"data"`
	}
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &response))
	suite.Equal(createdResponse.Data.ID, response.Data.ID)
	suite.Equal("sample.csv", response.Data.DatasetName)
}

func (suite *ServerTestSuite) TestGetBacktestNotFound() {
	recorder := suite.do(http.MethodGet, "/api/backtests/no-such-id", nil)
	suite.Equal(http.StatusNotFound, recorder.Code)
}

func (suite *ServerTestSuite) TestGetTrades() {
	created := suite.do(http.MethodPost, "/api/backtests", suite.createRequest())
	suite.Require().Equal(http.StatusCreated, created.Code)

	var createdResponse struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	suite.Require().NoError(json.Unmarshal(created.Body.Bytes(), &createdResponse))

	recorder := suite.do(http.MethodGet, fmt.Sprintf("/api/backtests/%s/trades", createdResponse.Data.ID), nil)
	suite.Require().Equal(http.StatusOK, recorder.Code)

	var response struct {
		Data []struct {
			Side          string  `json:"side"`
			PercentResult float64 `json:"percent_result"`
		} `json:"data"`
	}
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &response))
	suite.Require().Len(response.Data, 1)
	suite.Equal("long", response.Data[0].Side)
	suite.InDelta(10.0, response.Data[0].PercentResult, 1e-6)
}

func (suite *ServerTestSuite) TestGetTradesNotFound() {
	recorder := suite.do(http.MethodGet, "/api/backtests/no-such-id/trades", nil)
	suite.Equal(http.StatusNotFound, recorder.Code)
}

func (suite *ServerTestSuite) TestGetSchema() {
	recorder := suite.do(http.MethodGet, "/api/backtests/schema", nil)
	suite.Require().Equal(http.StatusOK, recorder.Code)

	var schema map[string]interface{}
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &schema))
	suite.Equal("strategy-config", schema["title"])
}

func (suite *ServerTestSuite) TestGetDatasetColumns() {
	recorder := suite.do(http.MethodGet, "/api/datasets/sample.csv/columns", nil)
	suite.Require().Equal(http.StatusOK, recorder.Code)

	var response struct {
		Data struct {
			Dataset string   `json:"dataset"`
			Columns []string `json:"columns"`
		} `json:"data"`
	}
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &response))
	suite.Equal("sample.csv", response.Data.Dataset)
	suite.Equal([]string{"kline_open_time", "close_price"}, response.Data.Columns)
}
