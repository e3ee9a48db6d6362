package query

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"eventScope/internal/model"
	"eventScope/internal/storage/memory"
)

func seedEvents(t *testing.T, store *memory.Store, types ...string) {
	t.Helper()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, eventType := range types {
		event := model.Event{
			EventType:       eventType,
			ContractAddress: "0x01",
			BlockNumber:     uint64(i),
			Timestamp:       base.Add(time.Duration(i) * time.Second),
		}
		if err := store.Events().InsertOne(context.Background(), event); err != nil {
			t.Fatalf("seed event: %v", err)
		}
	}
}

func TestRecentEventsNewestFirst(t *testing.T) {
	store := memory.NewStore()
	seedEvents(t, store, "A", "B", "C")
	s := NewService(store)

	events, err := s.RecentEvents(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := []string{events[0].EventType, events[1].EventType}
	if !reflect.DeepEqual(got, []string{"C", "B"}) {
		t.Fatalf("expected [C B], got %v", got)
	}
}

func TestRecentEventsShortHistory(t *testing.T) {
	store := memory.NewStore()
	seedEvents(t, store, "A")
	s := NewService(store)

	events, err := s.RecentEvents(context.Background(), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
}

func TestInvalidLimit(t *testing.T) {
	s := NewService(memory.NewStore())

	if _, err := s.RecentEvents(context.Background(), 0); !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
	if _, err := s.HealthHistory(context.Background(), -3); !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestEventStatistics(t *testing.T) {
	store := memory.NewStore()
	seedEvents(t, store, "Transfer", "Transfer", "Approval")
	s := NewService(store)

	stats, err := s.EventStatistics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]int64{"Transfer": 2, "Approval": 1}
	if !reflect.DeepEqual(stats, want) {
		t.Fatalf("statistics mismatch: %v != %v", stats, want)
	}
}

func TestHealthStatistics(t *testing.T) {
	store := memory.NewStore()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, status := range []model.Status{model.StatusHealthy, model.StatusDegraded, model.StatusHealthy} {
		check := model.HealthCheck{Status: status, Timestamp: base.Add(time.Duration(i) * time.Minute)}
		if err := store.HealthChecks().InsertOne(context.Background(), check); err != nil {
			t.Fatalf("seed check: %v", err)
		}
	}
	s := NewService(store)

	stats, err := s.HealthStatistics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]int64{"healthy": 2, "degraded": 1}
	if !reflect.DeepEqual(stats, want) {
		t.Fatalf("statistics mismatch: %v != %v", stats, want)
	}
}
