package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"eventScope/internal/api"
	"eventScope/internal/chain"
	"eventScope/internal/config"
	"eventScope/internal/health"
	"eventScope/internal/ingest"
	"eventScope/internal/model"
	"eventScope/internal/query"
	"eventScope/internal/storage/postgres"
	"eventScope/internal/writer"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Contract event indexer with health monitoring",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the indexer, health monitor, and API server",
		RunE:  runIndexer,
	}

	runCmd.Flags().String("rpc", "", "RPC URL")
	runCmd.Flags().String("address", "", "watched contract address")
	runCmd.Flags().StringSlice("topic0", nil, "topic0 filters (comma-separated)")
	runCmd.Flags().StringSlice("event-names", nil, "topic0=name mappings (comma-separated)")
	runCmd.Flags().Uint64("start-block", 0, "first block to poll when no checkpoint exists")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	runCmd.Flags().Duration("poll-interval", 15*time.Second, "chain poll interval")
	runCmd.Flags().Duration("health-interval", time.Minute, "health check interval")
	runCmd.Flags().Duration("latency-threshold", time.Second, "network latency degradation threshold")
	runCmd.Flags().Uint64("event-lookback", 5000, "blocks the contract probe scans back")
	runCmd.Flags().Int("http-port", 8080, "API server port")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().Int("max-attempts", 3, "write and RPC attempt budget")
	runCmd.Flags().Duration("retry-backoff", time.Second, "initial retry backoff")
	runCmd.Flags().String("deadletter", "", "dead-letter JSONL path for unsaved records")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)
	root.AddCommand(newHealthCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadRun(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	address, err := ingest.ParseAddress(cfg.ContractAddress)
	if err != nil {
		return err
	}
	topic0, err := ingest.ParseTopic0(cfg.Topic0)
	if err != nil {
		return err
	}
	eventNames, err := ingest.ParseEventNames(cfg.EventNames)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	writerCfg := writer.Config{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.RetryBackoff,
	}
	eventWriter := writer.New[model.Event](writerCfg, store.Events(), "events", logger)
	if cfg.Deadletter != "" {
		eventWriter = eventWriter.WithDeadletter(writer.NewDeadletter(cfg.Deadletter))
	}

	// Health checks insert ordered so a partial failure stops at the first
	// broken record instead of scattering.
	checkCfg := writerCfg
	checkCfg.Ordered = true
	checkWriter := writer.New[model.HealthCheck](checkCfg, store.HealthChecks(), "health_checks", logger)

	queries := query.NewService(store)

	monitor := health.NewMonitor(health.Config{
		ContractAddress:  address,
		LatencyThreshold: cfg.LatencyThreshold,
		EventLookback:    cfg.EventLookback,
	}, chainClient, logger)

	if stats, err := queries.EventStatistics(ctx); err != nil {
		logger.Warn("seed event stats", zap.Error(err))
	} else {
		var total int64
		for _, count := range stats {
			total += count
		}
		monitor.SeedEventStats(total)
	}

	loop := ingest.NewLoop(ingest.Config{
		ContractAddress:   address,
		Topic0:            topic0,
		EventNames:        eventNames,
		StartBlock:        cfg.StartBlock,
		PollInterval:      cfg.PollInterval,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxAttempts:       cfg.MaxAttempts,
		RetryBackoff:      cfg.RetryBackoff,
	}, chainClient, eventWriter, monitor, logger)

	server := api.NewServer(cfg.HTTPPort, monitor, queries, logger)

	logger.Info("indexer start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("chain_id", chainID.String()),
		zap.String("address", address.Hex()),
		zap.Int("topic0", len(topic0)),
		zap.Int("event_names", len(eventNames)),
		zap.Uint64("start_block", cfg.StartBlock),
		zap.String("pg_dsn", config.RedactDSN(cfg.PGDSN)),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Duration("health_interval", cfg.HealthInterval),
		zap.Int("http_port", cfg.HTTPPort),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	server.Start()

	errCh := make(chan error, 2)
	go func() { errCh <- loop.Run(ctx) }()
	go func() { errCh <- health.RunLoop(ctx, monitor, checkWriter, cfg.HealthInterval, logger) }()

	runErr := drainLoops(errCh, stop)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown", zap.Error(err))
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// drainLoops waits for either loop to return, cancels the shared context so
// the survivor exits, and joins it before reporting the first error. Without
// the cancel a hard failure in one loop would leave the other running and the
// error unreported until a signal arrives.
func drainLoops(errCh <-chan error, cancel context.CancelFunc) error {
	err := <-errCh
	cancel()
	<-errCh
	return err
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
