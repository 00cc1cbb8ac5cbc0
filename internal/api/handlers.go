package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/moznion/go-optional"
	backtest "github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// CreateBacktestRequest is the body of POST /api/backtests.
type CreateBacktestRequest struct {
	// Dataset is the dataset file name inside the server's datasets folder.
	Dataset string `json:"dataset"`
	// Config is the strategy configuration of the run.
	Config engine.StrategyConfig `json:"config"`
}

// dataResponse is the envelope of all successful responses.
type dataResponse struct {
	Data any `json:"data"`
}

// errorResponse is the envelope of all error responses.
type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func (s *Server) handleCreateBacktest(w http.ResponseWriter, r *http.Request) {
	// pre-fill defaults so omitted config fields keep their sentinels
	request := CreateBacktestRequest{Config: engine.EmptyConfig()}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid request body", err))

		return
	}

	datasetPath, err := s.resolveDataset(request.Dataset)
	if err != nil {
		s.writeError(w, err)

		return
	}

	// The engine consumes YAML configuration; round-trip the JSON config.
	configYAML, err := yaml.Marshal(request.Config)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to encode config", err))

		return
	}

	runEngine := engine.NewBacktestEngineV1()
	if err := runEngine.Initialize(string(configYAML)); err != nil {
		s.writeError(w, err)

		return
	}

	ds, err := datasource.NewDataSource(s.logger)
	if err != nil {
		s.writeError(w, err)

		return
	}
	defer ds.Close()

	if err := ds.Initialize(datasetPath); err != nil {
		s.writeError(w, err)

		return
	}

	if err := runEngine.SetDataSource(ds); err != nil {
		s.writeError(w, err)

		return
	}

	result, err := runEngine.Run(r.Context(), optional.None[backtest.OnRowCallback]())
	if err != nil {
		s.writeError(w, err)

		return
	}

	id, err := s.store.SaveResult(result)
	if err != nil {
		s.writeError(w, err)

		return
	}

	result.ID = id

	s.logger.Info("Backtest completed",
		zap.String("id", id),
		zap.String("dataset", request.Dataset),
		zap.Int("trades", result.TradeCount),
	)

	s.writeJSON(w, http.StatusCreated, dataResponse{Data: result})
}

func (s *Server) handleListBacktests(w http.ResponseWriter, r *http.Request) {
	results, err := s.store.ListResults()
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, dataResponse{Data: results})
}

func (s *Server) handleGetBacktest(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	result, err := s.store.GetResult(id)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, dataResponse{Data: result})
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	// surface a 404 for unknown runs instead of an empty list
	if _, err := s.store.GetResult(id); err != nil {
		s.writeError(w, err)

		return
	}

	trades, err := s.store.GetTrades(id)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, dataResponse{Data: trades})
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	config := engine.EmptyConfig()

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		s.writeError(w, err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(schema))
}

func (s *Server) handleGetDatasetColumns(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]

	datasetPath, err := s.resolveDataset(file)
	if err != nil {
		s.writeError(w, err)

		return
	}

	ds, err := datasource.NewDataSource(s.logger)
	if err != nil {
		s.writeError(w, err)

		return
	}
	defer ds.Close()

	if err := ds.Initialize(datasetPath); err != nil {
		s.writeError(w, err)

		return
	}

	columns, err := ds.Columns()
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, dataResponse{Data: map[string]any{
		"dataset": file,
		"columns": columns,
	}})
}

// resolveDataset maps a dataset file name to a path inside the datasets
// folder, rejecting traversal outside it.
func (s *Server) resolveDataset(name string) (string, error) {
	if name == "" {
		return "", errors.New(errors.ErrCodeInvalidConfiguration, "dataset name is required")
	}

	if strings.Contains(name, "..") || filepath.IsAbs(name) {
		return "", errors.Newf(errors.ErrCodeDatasetNotFound, "invalid dataset name: %s", name)
	}

	path := filepath.Join(s.datasetsDir, name)

	if _, err := os.Stat(path); err != nil {
		return "", errors.Newf(errors.ErrCodeDatasetNotFound, "dataset %s not found", name)
	}

	return path, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError translates structured error codes into HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)

	status := http.StatusInternalServerError

	switch {
	case errors.IsConfiguration(err) || errors.IsRuleEvaluation(err):
		status = http.StatusBadRequest
	case code == errors.ErrCodeResultNotFound || code == errors.ErrCodeDatasetNotFound:
		status = http.StatusNotFound
	case code == errors.ErrCodeColumnNotFound || code == errors.ErrCodeUnsupportedExtension || code == errors.ErrCodeEmptyDataset:
		status = http.StatusBadRequest
	}

	s.logger.Error("Request failed",
		zap.Int("status", status),
		zap.Error(err),
	)

	s.writeJSON(w, status, errorResponse{
		Error: err.Error(),
		Code:  int(code),
	})
}
