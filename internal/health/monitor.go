// Package health evaluates independent probes of the network, the watched
// contract, the local indexer, and the credential-rotation signal, and
// composes them into one status per cycle.
package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"eventScope/internal/chain"
	"eventScope/internal/model"
)

// Prober is the chain surface the remote probes need.
type Prober interface {
	Head(ctx context.Context) (chain.Head, error)
	LatestContractEvent(ctx context.Context, address common.Address, lookback uint64) (string, bool, error)
}

// Config controls probe thresholds and targets.
type Config struct {
	ContractAddress  common.Address
	LatencyThreshold time.Duration // network latency above this degrades the status (default 1s)
	EventLookback    uint64        // blocks the contract probe scans back from the tip (default 5000)
}

// Monitor runs the probe set and caches the last completed cycle.
type Monitor struct {
	cfg    Config
	prober Prober
	logger *zap.Logger

	eventsProcessed atomic.Int64
	lastEventNanos  atomic.Int64

	mu   sync.RWMutex
	last *model.HealthStatus
}

func NewMonitor(cfg Config, prober Prober, logger *zap.Logger) *Monitor {
	if cfg.LatencyThreshold <= 0 {
		cfg.LatencyThreshold = time.Second
	}
	if cfg.EventLookback == 0 {
		cfg.EventLookback = 5000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{cfg: cfg, prober: prober, logger: logger}
}

// CheckHealth runs every probe and caches the composed result. The network
// and contract probes are remote calls and run concurrently; the indexer and
// credential probes read local counters. Probe failures surface as unhealthy
// sub-statuses, never as an error.
func (m *Monitor) CheckHealth(ctx context.Context) model.HealthStatus {
	networkCh := make(chan model.NetworkHealth, 1)
	contractCh := make(chan model.ContractHealth, 1)
	go func() { networkCh <- m.networkHealth(ctx) }()
	go func() { contractCh <- m.contractHealth(ctx) }()

	status := model.HealthStatus{
		Timestamp:  time.Now().UTC(),
		Network:    <-networkCh,
		Contract:   <-contractCh,
		Indexer:    m.indexerHealth(),
		Credential: m.credentialHealth(),
	}

	m.mu.Lock()
	m.last = &status
	m.mu.Unlock()

	return status
}

// GetLastHealthCheck returns the most recent completed cycle. The second
// return value distinguishes "not yet computed" from a computed unhealthy
// status.
func (m *Monitor) GetLastHealthCheck() (model.HealthStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return model.HealthStatus{}, false
	}
	return *m.last, true
}

// UpdateEventStats records one observed event. It is the only mutator of the
// indexer and credential counters and is safe to call concurrently with an
// in-flight CheckHealth.
func (m *Monitor) UpdateEventStats(observedAt time.Time) {
	m.eventsProcessed.Add(1)
	m.lastEventNanos.Store(observedAt.UTC().UnixNano())
}

// SeedEventStats primes the events-processed counter from persisted history
// so a restart does not report a degraded indexer while events exist.
func (m *Monitor) SeedEventStats(total int64) {
	if total > m.eventsProcessed.Load() {
		m.eventsProcessed.Store(total)
	}
}
