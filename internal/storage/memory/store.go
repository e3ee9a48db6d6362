// Package memory provides an in-process record store with the same contract
// as the Postgres backend. It backs tests and local development runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"eventScope/internal/model"
	"eventScope/internal/storage"
)

// Store keeps records in memory, ordered by insertion.
type Store struct {
	mu     sync.RWMutex
	events []model.Event
	checks []model.HealthCheck
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Events() storage.EventStore {
	return &eventStore{store: s}
}

func (s *Store) HealthChecks() storage.HealthCheckStore {
	return &healthCheckStore{store: s}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}

type eventStore struct {
	store *Store
}

func (s *eventStore) InsertOne(_ context.Context, event model.Event) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.events = append(s.store.events, event)
	return nil
}

func (s *eventStore) InsertMany(_ context.Context, events []model.Event, _ bool) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.events = append(s.store.events, events...)
	return nil
}

func (s *eventStore) FindRecent(_ context.Context, limit int) ([]model.Event, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	recent := make([]model.Event, len(s.store.events))
	copy(recent, s.store.events)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}

func (s *eventStore) CountByType(context.Context) (map[string]int64, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	counts := make(map[string]int64)
	for _, event := range s.store.events {
		counts[event.EventType]++
	}
	return counts, nil
}

type healthCheckStore struct {
	store *Store
}

func (s *healthCheckStore) InsertOne(_ context.Context, check model.HealthCheck) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.checks = append(s.store.checks, check)
	return nil
}

func (s *healthCheckStore) InsertMany(_ context.Context, checks []model.HealthCheck, _ bool) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.checks = append(s.store.checks, checks...)
	return nil
}

func (s *healthCheckStore) FindRecent(_ context.Context, limit int) ([]model.HealthCheck, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	recent := make([]model.HealthCheck, len(s.store.checks))
	copy(recent, s.store.checks)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}

func (s *healthCheckStore) CountByStatus(context.Context) (map[string]int64, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	counts := make(map[string]int64)
	for _, check := range s.store.checks {
		counts[string(check.Status)]++
	}
	return counts, nil
}
