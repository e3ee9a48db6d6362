package query

import (
	"context"
	"errors"

	"eventScope/internal/model"
	"eventScope/internal/storage"
)

// ErrInvalidLimit rejects non-positive limits.
var ErrInvalidLimit = errors.New("limit must be positive")

// Service reads persisted records and aggregates statistics.
type Service struct {
	store storage.Store
}

func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// RecentEvents returns up to limit events, newest first. Fewer records than
// limit yields a short result, not an error.
func (s *Service) RecentEvents(ctx context.Context, limit int) ([]model.Event, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	return s.store.Events().FindRecent(ctx, limit)
}

// HealthHistory returns up to limit health checks, newest first.
func (s *Service) HealthHistory(ctx context.Context, limit int) ([]model.HealthCheck, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	return s.store.HealthChecks().FindRecent(ctx, limit)
}

// EventStatistics groups all persisted events by type. This scans the full
// history; there is no time-window filter.
func (s *Service) EventStatistics(ctx context.Context) (map[string]int64, error) {
	return s.store.Events().CountByType(ctx)
}

// HealthStatistics groups all persisted health checks by status.
func (s *Service) HealthStatistics(ctx context.Context) (map[string]int64, error) {
	return s.store.HealthChecks().CountByStatus(ctx)
}
