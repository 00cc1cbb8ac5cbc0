// Package api exposes the backtest engine and result store over a REST API.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/store"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"go.uber.org/zap"
)

// Server serves the backtest REST API.
type Server struct {
	router      *mux.Router
	httpServer  *http.Server
	store       *store.Store
	logger      *logger.Logger
	datasetsDir string
}

// NewServer creates a server persisting results to the given store and
// resolving dataset names inside datasetsDir.
func NewServer(addr string, resultStore *store.Store, datasetsDir string, log *logger.Logger) *Server {
	server := &Server{
		router:      mux.NewRouter(),
		store:       resultStore,
		logger:      log,
		datasetsDir: datasetsDir,
	}

	server.routes()

	server.httpServer = &http.Server{
		Addr:              addr,
		Handler:           server.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// static paths must register before the {id} route
	api.HandleFunc("/backtests/schema", s.handleGetSchema).Methods(http.MethodGet)
	api.HandleFunc("/backtests", s.handleCreateBacktest).Methods(http.MethodPost)
	api.HandleFunc("/backtests", s.handleListBacktests).Methods(http.MethodGet)
	api.HandleFunc("/backtests/{id}", s.handleGetBacktest).Methods(http.MethodGet)
	api.HandleFunc("/backtests/{id}/trades", s.handleGetTrades).Methods(http.MethodGet)
	api.HandleFunc("/datasets/{file}/columns", s.handleGetDatasetColumns).Methods(http.MethodGet)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts serving until the listener fails or Shutdown is
// called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("Starting API server",
		zap.String("addr", s.httpServer.Addr),
		zap.String("datasets_dir", s.datasetsDir),
	)

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
