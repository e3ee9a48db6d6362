package health

import (
	"context"
	"time"

	"go.uber.org/zap"

	"eventScope/internal/metrics"
	"eventScope/internal/model"
	"eventScope/internal/writer"
)

// RunLoop records a health check snapshot every interval until ctx is done.
func RunLoop(
	ctx context.Context,
	monitor *Monitor,
	checks *writer.Writer[model.HealthCheck],
	interval time.Duration,
	logger *zap.Logger,
) error {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status := monitor.CheckHealth(ctx)
		logger.Info("health cycle",
			zap.String("overall", string(status.Overall())),
			zap.String("network", string(status.Network.Status)),
			zap.String("contract", string(status.Contract.Status)),
			zap.String("indexer", string(status.Indexer.Status)),
			zap.String("credential", string(status.Credential.Status)),
			zap.Int64("events_processed", status.Indexer.EventsProcessed),
		)

		if _, err := checks.SaveBatch(ctx, []model.HealthCheck{status.Check()}); err != nil {
			logger.Warn("record health check", zap.Error(err))
		} else {
			metrics.HealthChecksRecorded.Inc()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
