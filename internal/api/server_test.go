package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"eventScope/internal/chain"
	"eventScope/internal/health"
	"eventScope/internal/model"
	"eventScope/internal/query"
	"eventScope/internal/storage/memory"
)

type fakeProber struct{}

func (fakeProber) Head(context.Context) (chain.Head, error) {
	return chain.Head{Number: 100, Latency: 20 * time.Millisecond}, nil
}

func (fakeProber) LatestContractEvent(context.Context, common.Address, uint64) (string, bool, error) {
	return "0xabc", true, nil
}

func newTestServer(t *testing.T) (*Server, *memory.Store, *health.Monitor) {
	t.Helper()
	store := memory.NewStore()
	monitor := health.NewMonitor(health.Config{}, fakeProber{}, nil)
	return NewServer(0, monitor, query.NewService(store), nil), store, monitor
}

func seedEvents(t *testing.T, store *memory.Store, events ...model.Event) {
	t.Helper()
	for _, event := range events {
		if err := store.Events().InsertOne(context.Background(), event); err != nil {
			t.Fatalf("seed event: %v", err)
		}
	}
}

func TestEventsEndpointRespectsLimit(t *testing.T) {
	server, store, _ := newTestServer(t)
	base := time.Now().UTC()
	seedEvents(t, store,
		model.Event{EventType: "Transfer", Timestamp: base},
		model.Event{EventType: "Approval", Timestamp: base.Add(time.Minute)},
		model.Event{EventType: "Transfer", Timestamp: base.Add(2 * time.Minute)},
	)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events?limit=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var events []model.Event
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Timestamp.Before(events[1].Timestamp) {
		t.Fatalf("expected newest first, got %v then %v", events[0].Timestamp, events[1].Timestamp)
	}
}

func TestEventsEndpointRejectsInvalidLimit(t *testing.T) {
	server, _, _ := newTestServer(t)

	for _, target := range []string{"/events?limit=-1", "/events?limit=0", "/events?limit=abc"} {
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
		var resp errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Error == "" {
			t.Fatalf("%s: expected an error message", target)
		}
	}
}

func TestHealthEndpointRunsProbes(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status model.HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Network.Status != model.StatusHealthy {
		t.Fatalf("expected healthy network, got %s", status.Network.Status)
	}
}

func TestLastHealthBeforeFirstCycle(t *testing.T) {
	server, _, monitor := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/last", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before the first cycle, got %d", rec.Code)
	}

	monitor.CheckHealth(context.Background())

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/last", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after a cycle, got %d", rec.Code)
	}
}

func TestStatsEndpointGroupsByType(t *testing.T) {
	server, store, _ := newTestServer(t)
	seedEvents(t, store,
		model.Event{EventType: "Transfer", Timestamp: time.Now().UTC()},
		model.Event{EventType: "Transfer", Timestamp: time.Now().UTC()},
		model.Event{EventType: "Approval", Timestamp: time.Now().UTC()},
	)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var stats map[string]int64
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats["Transfer"] != 2 || stats["Approval"] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}
