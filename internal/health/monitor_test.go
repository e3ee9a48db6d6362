package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"eventScope/internal/chain"
	"eventScope/internal/model"
)

type fakeProber struct {
	head      chain.Head
	headErr   error
	lastEvent string
	found     bool
	eventErr  error
}

func (p *fakeProber) Head(context.Context) (chain.Head, error) {
	if p.headErr != nil {
		return chain.Head{}, p.headErr
	}
	return p.head, nil
}

func (p *fakeProber) LatestContractEvent(context.Context, common.Address, uint64) (string, bool, error) {
	if p.eventErr != nil {
		return "", false, p.eventErr
	}
	return p.lastEvent, p.found, nil
}

func newTestMonitor(prober Prober) *Monitor {
	return NewMonitor(Config{
		ContractAddress:  common.HexToAddress("0x1111111111111111111111111111111111111111"),
		LatencyThreshold: time.Second,
	}, prober, nil)
}

func TestCheckHealthAllHealthy(t *testing.T) {
	prober := &fakeProber{
		head:      chain.Head{Number: 100, Hash: "0xabc", Latency: 20 * time.Millisecond},
		lastEvent: "0xdef",
		found:     true,
	}
	m := newTestMonitor(prober)
	m.UpdateEventStats(time.Now())

	status := m.CheckHealth(context.Background())
	if status.Network.Status != model.StatusHealthy || status.Network.LastBlock != 100 {
		t.Fatalf("network sub-status mismatch: %+v", status.Network)
	}
	if status.Contract.Status != model.StatusHealthy || status.Contract.LastEvent != "0xdef" {
		t.Fatalf("contract sub-status mismatch: %+v", status.Contract)
	}
	if status.Indexer.Status != model.StatusHealthy || status.Indexer.EventsProcessed != 1 {
		t.Fatalf("indexer sub-status mismatch: %+v", status.Indexer)
	}
	if status.Credential.Status != model.StatusHealthy || status.Credential.LastUpdate == nil {
		t.Fatalf("credential sub-status mismatch: %+v", status.Credential)
	}
	if status.Overall() != model.StatusHealthy {
		t.Fatalf("expected overall healthy, got %s", status.Overall())
	}
}

func TestNetworkProbeDegradedOnHighLatency(t *testing.T) {
	prober := &fakeProber{head: chain.Head{Number: 5, Latency: 2 * time.Second}}
	m := newTestMonitor(prober)

	status := m.CheckHealth(context.Background())
	if status.Network.Status != model.StatusDegraded {
		t.Fatalf("expected degraded network, got %s", status.Network.Status)
	}
}

func TestNetworkProbeFailureIsContained(t *testing.T) {
	prober := &fakeProber{headErr: errors.New("rpc down"), found: false}
	m := newTestMonitor(prober)

	status := m.CheckHealth(context.Background())
	if status.Network.Status != model.StatusUnhealthy {
		t.Fatalf("expected unhealthy network, got %s", status.Network.Status)
	}
	if status.Network.LatencyMS != -1 || status.Network.LastBlock != -1 {
		t.Fatalf("expected -1 sentinels, got %+v", status.Network)
	}
	// Other sub-statuses still computed.
	if status.Contract.Status != model.StatusHealthy {
		t.Fatalf("contract probe should be independent, got %s", status.Contract.Status)
	}
}

func TestContractProbeHealthyWithoutEvents(t *testing.T) {
	prober := &fakeProber{found: false}
	m := newTestMonitor(prober)

	status := m.CheckHealth(context.Background())
	if status.Contract.Status != model.StatusHealthy {
		t.Fatalf("expected healthy contract with zero events, got %s", status.Contract.Status)
	}
	if status.Contract.LastEvent != "" {
		t.Fatalf("expected no last event, got %q", status.Contract.LastEvent)
	}
}

func TestIndexerAndCredentialBeforeFirstEvent(t *testing.T) {
	m := newTestMonitor(&fakeProber{})

	status := m.CheckHealth(context.Background())
	if status.Indexer.Status != model.StatusDegraded {
		t.Fatalf("expected degraded indexer before first event, got %s", status.Indexer.Status)
	}
	if status.Credential.Status != model.StatusUnhealthy {
		t.Fatalf("expected unhealthy credential before first rotation, got %s", status.Credential.Status)
	}
}

func TestLastHealthCheckCaching(t *testing.T) {
	prober := &fakeProber{head: chain.Head{Number: 9, Latency: time.Millisecond}}
	m := newTestMonitor(prober)

	if _, ok := m.GetLastHealthCheck(); ok {
		t.Fatalf("expected no cached status before the first cycle")
	}

	first := m.CheckHealth(context.Background())

	// The next cycle fails its network probe entirely; the cached result must
	// still be present and updated.
	prober.headErr = errors.New("rpc down")
	m.CheckHealth(context.Background())

	last, ok := m.GetLastHealthCheck()
	if !ok {
		t.Fatalf("cached status lost after a failing cycle")
	}
	if last.Network.Status != model.StatusUnhealthy {
		t.Fatalf("cached status not updated, got %+v", last.Network)
	}
	if last.Timestamp.Before(first.Timestamp) {
		t.Fatalf("cached status regressed in time")
	}
}

func TestSeedEventStats(t *testing.T) {
	m := newTestMonitor(&fakeProber{})
	m.SeedEventStats(42)

	status := m.CheckHealth(context.Background())
	if status.Indexer.EventsProcessed != 42 || status.Indexer.Status != model.StatusHealthy {
		t.Fatalf("expected seeded healthy indexer, got %+v", status.Indexer)
	}

	// Seeding never decreases the live counter.
	m.UpdateEventStats(time.Now())
	m.SeedEventStats(10)
	if got := m.CheckHealth(context.Background()).Indexer.EventsProcessed; got != 43 {
		t.Fatalf("expected 43 events processed, got %d", got)
	}
}
