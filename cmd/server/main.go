package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/api"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/store"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// serverAction starts the REST API and blocks until interrupted.
func serverAction(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	dbPath := cmd.String("db")
	datasetsDir := cmd.String("datasets")

	logInstance, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	resultStore, err := store.NewStore(dbPath, logInstance)
	if err != nil {
		return fmt.Errorf("failed to open result store: %w", err)
	}
	defer resultStore.Close()

	if err := resultStore.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize result store: %w", err)
	}

	server := api.NewServer(addr, resultStore, datasetsDir, logInstance)

	errCh := make(chan error, 1)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
		logInstance.Info("Shutting down", zap.String("addr", addr))
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func main() {
	cmd := &cli.Command{
		Name:  "server",
		Usage: "Serve the backtest REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "Listen address",
				Value:   ":8080",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Result database path",
				Value: "backtests.db",
			},
			&cli.StringFlag{
				Name:    "datasets",
				Aliases: []string{"d"},
				Usage:   "Directory containing dataset files",
				Value:   "data",
			},
		},
		Action: serverAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
