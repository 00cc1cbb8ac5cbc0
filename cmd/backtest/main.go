package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/moznion/go-optional"
	backtest "github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/store"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// backtestAction loads the strategy config and the dataset, runs the
// simulation and writes the result summary.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	outputPath := cmd.String("output")
	dbPath := cmd.String("db")

	if outputPath == "" {
		outputPath = defaultOutputPath(configPath)
	}

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	logInstance, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	runEngine := engine.NewBacktestEngineV1()
	if err := runEngine.Initialize(string(configData)); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	ds, err := datasource.NewDataSource(logInstance)
	if err != nil {
		return fmt.Errorf("failed to create datasource: %w", err)
	}
	defer ds.Close()

	if err := ds.Initialize(dataPath); err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	if err := runEngine.SetDataSource(ds); err != nil {
		return fmt.Errorf("failed to set datasource: %w", err)
	}

	var bar *progressbar.ProgressBar

	onRow := backtest.OnRowCallback(func(current int, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total))
		}

		bar.Set(current)
	})

	result, err := runEngine.Run(ctx, optional.Some(onRow))
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	if dbPath != "" {
		resultStore, err := store.NewStore(dbPath, logInstance)
		if err != nil {
			return fmt.Errorf("failed to open result store: %w", err)
		}
		defer resultStore.Close()

		if err := resultStore.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize result store: %w", err)
		}

		id, err := resultStore.SaveResult(result)
		if err != nil {
			return fmt.Errorf("failed to save result: %w", err)
		}

		result.ID = id
	}

	if err := types.WriteResultSummary(outputPath, result); err != nil {
		return fmt.Errorf("failed to write result summary: %w", err)
	}

	fmt.Printf("Backtest finished: %d trades, end balance %.2f (%.2f%%)\n",
		result.TradeCount, result.EndBalance, result.ResultPercent)
	fmt.Printf("Summary written to %s\n", outputPath)

	return nil
}

func defaultOutputPath(configPath string) string {
	base := strings.TrimSuffix(filepath.Base(configPath), filepath.Ext(configPath))

	return base + "_result.yaml"
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run a strategy backtest over a dataset file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the strategy configuration YAML file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the dataset file (CSV or Parquet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path of the result summary YAML file. Defaults to <config>_result.yaml",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Optional result database path to persist the run",
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
