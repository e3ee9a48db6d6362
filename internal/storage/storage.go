package storage

import (
	"context"

	"eventScope/internal/model"
)

// Kind identifies a logical record collection.
type Kind string

const (
	KindEvents       Kind = "events"
	KindHealthChecks Kind = "health_checks"
)

// EventStore persists and queries contract events. Bulk inserts in ordered
// mode stop at the first failed record; unordered mode attempts every record.
type EventStore interface {
	InsertOne(ctx context.Context, event model.Event) error
	InsertMany(ctx context.Context, events []model.Event, ordered bool) error
	FindRecent(ctx context.Context, limit int) ([]model.Event, error)
	CountByType(ctx context.Context) (map[string]int64, error)
}

// HealthCheckStore persists and queries health check snapshots.
type HealthCheckStore interface {
	InsertOne(ctx context.Context, check model.HealthCheck) error
	InsertMany(ctx context.Context, checks []model.HealthCheck, ordered bool) error
	FindRecent(ctx context.Context, limit int) ([]model.HealthCheck, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// Store is the durable record store consumed by the writer and query layers.
type Store interface {
	Events() EventStore
	HealthChecks() HealthCheckStore
	Ping(ctx context.Context) error
	Close()
}
