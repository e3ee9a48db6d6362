package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"eventScope/internal/health"
	"eventScope/internal/metrics"
	"eventScope/internal/model"
	"eventScope/internal/writer"
)

// Chain is the RPC surface the ingestion loop needs.
type Chain interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// Config holds runtime settings for the ingestion loop.
type Config struct {
	ContractAddress   common.Address
	Topic0            []common.Hash
	EventNames        map[common.Hash]string // topic0 -> event type
	StartBlock        uint64
	PollInterval      time.Duration
	CheckpointPath    string
	CheckpointEnabled bool
	MaxAttempts       int
	RetryBackoff      time.Duration
}

// Loop polls the chain for contract logs, normalizes them into events, and
// hands batches to the resilient writer.
type Loop struct {
	cfg        Config
	chain      Chain
	events     *writer.Writer[model.Event]
	monitor    *health.Monitor
	logger     *zap.Logger
	seen       map[string]struct{}
	checkpoint *CheckpointStore
	next       uint64
}

// NewLoop builds a Loop with its dependencies.
func NewLoop(cfg Config, chainClient Chain, events *writer.Writer[model.Event], monitor *health.Monitor, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		cfg:        cfg,
		chain:      chainClient,
		events:     events,
		monitor:    monitor,
		logger:     logger,
		seen:       make(map[string]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run executes the polling loop until the context is done.
func (l *Loop) Run(ctx context.Context) error {
	if l.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if l.events == nil {
		return fmt.Errorf("event writer is nil")
	}
	if l.cfg.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	l.next = l.cfg.StartBlock
	if l.checkpoint != nil {
		cp, ok, err := l.checkpoint.Load()
		if err != nil {
			return err
		}
		if ok && cp.LastPolledBlock >= l.next {
			l.next = cp.LastPolledBlock + 1
			l.logger.Info("resume from checkpoint",
				zap.Uint64("last_polled", cp.LastPolledBlock),
				zap.Uint64("next", l.next),
			)
		}
	}

	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := l.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Error("poll failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// PollOnce fetches and persists all new logs since the last polled block.
func (l *Loop) PollOnce(ctx context.Context) error {
	latest, err := l.latestBlockWithRetry(ctx)
	if err != nil {
		return fmt.Errorf("get latest block: %w", err)
	}
	if latest < l.next {
		return nil
	}

	logs, err := l.filterLogsWithRetry(ctx, l.next, latest)
	if err != nil {
		return fmt.Errorf("filter logs: %w", err)
	}

	batch := make([]model.Event, 0, len(logs))
	for _, entry := range logs {
		if l.isDuplicate(entry) {
			continue
		}
		batch = append(batch, l.Normalize(ctx, entry))
	}

	if len(batch) > 0 {
		outcome, err := l.events.SaveBatch(ctx, batch)
		if err != nil && !errors.Is(err, writer.ErrNoValidRecords) {
			return fmt.Errorf("save events: %w", err)
		}

		if l.monitor != nil {
			for _, event := range batch {
				if event.Valid() {
					l.monitor.UpdateEventStats(event.Timestamp)
				}
			}
		}
		metrics.EventsIngested.Add(float64(outcome.Valid))

		l.logger.Info("batch complete",
			zap.Int("events", outcome.Valid),
			zap.Int("invalid", outcome.Invalid),
			zap.Int("unconfirmed", outcome.Unconfirmed),
			zap.Uint64("from", l.next),
			zap.Uint64("to", latest),
		)
	}

	l.next = latest + 1
	metrics.LastPolledBlock.Set(float64(latest))
	if l.checkpoint != nil {
		if err := l.checkpoint.Save(latest); err != nil {
			return err
		}
	}

	return nil
}

// OnChainEvent ingests a single raw log outside the poll cycle, for
// subscription-based sources.
func (l *Loop) OnChainEvent(ctx context.Context, entry types.Log) error {
	if l.isDuplicate(entry) {
		return nil
	}

	event := l.Normalize(ctx, entry)
	_, err := l.events.SaveBatch(ctx, []model.Event{event})
	if err != nil {
		if errors.Is(err, writer.ErrNoValidRecords) {
			return nil
		}
		return fmt.Errorf("save event: %w", err)
	}

	if l.monitor != nil {
		l.monitor.UpdateEventStats(event.Timestamp)
	}
	metrics.EventsIngested.Inc()
	return nil
}

// Normalize converts a raw chain log into an Event. Logs without a topic0
// yield an invalid event that the writer counts and reports. A failed block
// timestamp lookup leaves the timestamp unset so the writer assigns ingestion
// time.
func (l *Loop) Normalize(ctx context.Context, entry types.Log) model.Event {
	event := model.Event{
		ContractAddress: entry.Address.Hex(),
		BlockNumber:     entry.BlockNumber,
		TransactionHash: entry.TxHash.Hex(),
	}

	if len(entry.Topics) > 0 {
		topic0 := entry.Topics[0]
		if name, ok := l.cfg.EventNames[topic0]; ok {
			event.EventType = name
		} else {
			event.EventType = topic0.Hex()
		}
	}

	topics := make([]string, 0, len(entry.Topics))
	for _, topic := range entry.Topics {
		topics = append(topics, topic.Hex())
	}
	event.Data = map[string]any{
		"topics":    topics,
		"data":      hexutil.Encode(entry.Data),
		"log_index": entry.Index,
	}

	ts, err := l.blockTimestampWithRetry(ctx, entry.BlockNumber)
	if err != nil {
		l.logger.Warn("block timestamp fetch failed",
			zap.Error(err),
			zap.Uint64("block_number", entry.BlockNumber),
		)
		return event
	}
	event.Timestamp = time.Unix(int64(ts), 0).UTC()

	return event
}

func (l *Loop) latestBlockWithRetry(ctx context.Context) (uint64, error) {
	var latest uint64
	err := writer.Backoff(ctx, l.cfg.MaxAttempts, l.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		latest, err = l.chain.LatestBlockNumber(ctx)
		if err != nil {
			l.logger.Warn("latest block fetch failed", zap.Error(err))
		}
		return err
	})
	return latest, err
}

func (l *Loop) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	var logs []types.Log
	err := writer.Backoff(ctx, l.cfg.MaxAttempts, l.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = l.chain.FilterLogs(ctx, fromBlock, toBlock, []common.Address{l.cfg.ContractAddress}, l.cfg.Topic0)
		if err != nil {
			l.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return logs, err
}

func (l *Loop) blockTimestampWithRetry(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := writer.Backoff(ctx, l.cfg.MaxAttempts, l.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		ts, err = l.chain.BlockTimestamp(ctx, blockNumber)
		return err
	})
	return ts, err
}

func (l *Loop) isDuplicate(entry types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", entry.BlockNumber, entry.TxHash.Hex(), entry.Index)
	if _, ok := l.seen[id]; ok {
		return true
	}
	l.seen[id] = struct{}{}
	return false
}
