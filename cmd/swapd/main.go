package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"swapcore/internal/config"
	"swapcore/internal/custody"
	"swapcore/internal/engine"
	"swapcore/internal/journal"
	"swapcore/internal/runner"
	"swapcore/internal/store"
	"swapcore/internal/store/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "swapd",
		Short:        "Constant-product pool engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Apply an operation stream",
		RunE:  runStream,
	}

	runCmd.Flags().String("in", "", "input operations JSONL")
	runCmd.Flags().String("genesis", "", "genesis accounts JSON")
	runCmd.Flags().String("out", "./data/receipts.jsonl", "output receipts JSONL")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().Int("batch-size", 1000, "operations per journal batch")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN for pool snapshots")
	runCmd.Flags().String("snapshot-name", "swapd", "snapshot state name")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)
	root.AddCommand(newQuoteCmd())
	root.AddCommand(newDeriveCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runStream(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input stream is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pools := store.NewMemory()
	ledger := custody.NewLedger()
	if cfg.Genesis != "" {
		if err := runner.LoadGenesis(cfg.Genesis, ledger); err != nil {
			return err
		}
	}
	eng := engine.New(pools, ledger, logger)

	var snapshots runner.SnapshotSink
	if cfg.PGDSN != "" {
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		snapshots = pg
	}

	r := runner.NewRunner(runner.RunConfig{
		In:                cfg.In,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		SnapshotName:      cfg.SnapshotName,
	}, eng, pools, journal.NewJsonlJournal(cfg.Out), snapshots, logger)

	logger.Info("swapd start",
		zap.String("in", cfg.In),
		zap.String("genesis", cfg.Genesis),
		zap.String("out", cfg.Out),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
		zap.Bool("snapshots", snapshots != nil),
	)

	return r.Run(ctx)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
