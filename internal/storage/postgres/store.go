package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eventScope/internal/storage"
)

// Store provides Postgres persistence for events and health checks.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Ping verifies the connection is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Events returns the contract_events collection.
func (s *Store) Events() storage.EventStore {
	return &eventStore{pool: s.pool}
}

// HealthChecks returns the health_checks collection.
func (s *Store) HealthChecks() storage.HealthCheckStore {
	return &healthCheckStore{pool: s.pool}
}

// EnsureSchema creates the record tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS contract_events (
			event_type       text NOT NULL,
			contract_address text NOT NULL,
			block_number     bigint NOT NULL,
			transaction_hash text NOT NULL,
			data             jsonb,
			recorded_at      timestamptz NOT NULL
		);
		CREATE INDEX IF NOT EXISTS contract_events_recorded_at_idx
			ON contract_events (recorded_at DESC);

		CREATE TABLE IF NOT EXISTS health_checks (
			status          text NOT NULL,
			contract_status text NOT NULL,
			network_status  text NOT NULL,
			last_block      bigint NOT NULL,
			user_count      bigint NOT NULL,
			recorded_at     timestamptz NOT NULL
		);
		CREATE INDEX IF NOT EXISTS health_checks_recorded_at_idx
			ON health_checks (recorded_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// execBatch reads batch results, stopping at the first error in ordered mode
// and collecting every error otherwise.
func execBatch(br pgx.BatchResults, count int, ordered bool) error {
	var errs []error
	for i := 0; i < count; i++ {
		if _, err := br.Exec(); err != nil {
			if ordered {
				return fmt.Errorf("record %d: %w", i, err)
			}
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func groupCount(ctx context.Context, pool *pgxpool.Pool, sql string) (map[string]int64, error) {
	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}
