package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"eventScope/internal/chain"
	"eventScope/internal/config"
	"eventScope/internal/health"
	"eventScope/internal/ingest"
	"eventScope/internal/model"
)

func newHealthCmd() *cobra.Command {
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Run the health probes once and print the result",
		RunE:  runHealth,
	}

	healthCmd.Flags().String("rpc", "", "RPC URL")
	healthCmd.Flags().String("address", "", "watched contract address")
	healthCmd.Flags().Duration("latency-threshold", time.Second, "network latency degradation threshold")
	healthCmd.Flags().Uint64("event-lookback", 5000, "blocks the contract probe scans back")
	healthCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return healthCmd
}

func runHealth(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadHealth(cfgFile, cmd.Flags())
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
	address, err := ingest.ParseAddress(cfg.ContractAddress)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	monitor := health.NewMonitor(health.Config{
		ContractAddress:  address,
		LatencyThreshold: cfg.LatencyThreshold,
		EventLookback:    cfg.EventLookback,
	}, chainClient, logger)

	status := monitor.CheckHealth(ctx)

	out, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	// The indexer and credential probes read in-process counters, so a
	// fresh one-shot run cannot satisfy them. Gate the exit code on the
	// remote probes only.
	if status.Network.Status == model.StatusUnhealthy || status.Contract.Status == model.StatusUnhealthy {
		return fmt.Errorf("remote probes report unhealthy")
	}
	return nil
}
