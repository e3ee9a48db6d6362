package health

import (
	"context"
	"time"

	"go.uber.org/zap"

	"eventScope/internal/metrics"
	"eventScope/internal/model"
)

func (m *Monitor) networkHealth(ctx context.Context) model.NetworkHealth {
	head, err := m.prober.Head(ctx)
	if err != nil {
		metrics.ProbeFailures.WithLabelValues("network").Inc()
		m.logger.Warn("network probe failed", zap.Error(err))
		return model.NetworkHealth{Status: model.StatusUnhealthy, LatencyMS: -1, LastBlock: -1}
	}

	status := model.StatusHealthy
	if head.Latency >= m.cfg.LatencyThreshold {
		status = model.StatusDegraded
	}
	return model.NetworkHealth{
		Status:    status,
		LatencyMS: head.Latency.Milliseconds(),
		LastBlock: int64(head.Number),
	}
}

// contractHealth treats a successful event query as the liveness signal; an
// empty result is still healthy.
func (m *Monitor) contractHealth(ctx context.Context) model.ContractHealth {
	address := m.cfg.ContractAddress.Hex()

	txHash, found, err := m.prober.LatestContractEvent(ctx, m.cfg.ContractAddress, m.cfg.EventLookback)
	if err != nil {
		metrics.ProbeFailures.WithLabelValues("contract").Inc()
		m.logger.Warn("contract probe failed", zap.Error(err))
		return model.ContractHealth{Status: model.StatusUnhealthy, Address: address}
	}

	contract := model.ContractHealth{Status: model.StatusHealthy, Address: address}
	if found {
		contract.LastEvent = txHash
	}
	return contract
}

// indexerHealth reflects local state only and is never unhealthy.
func (m *Monitor) indexerHealth() model.IndexerHealth {
	processed := m.eventsProcessed.Load()
	status := model.StatusDegraded
	if processed > 0 {
		status = model.StatusHealthy
	}
	return model.IndexerHealth{
		Status:          status,
		LastPoll:        time.Now().UTC(),
		EventsProcessed: processed,
	}
}

// credentialHealth is strict: no observed rotation event means unhealthy.
func (m *Monitor) credentialHealth() model.CredentialHealth {
	nanos := m.lastEventNanos.Load()
	if nanos == 0 {
		return model.CredentialHealth{Status: model.StatusUnhealthy}
	}
	lastUpdate := time.Unix(0, nanos).UTC()
	return model.CredentialHealth{Status: model.StatusHealthy, LastUpdate: &lastUpdate}
}
