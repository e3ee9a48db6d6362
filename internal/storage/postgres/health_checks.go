package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eventScope/internal/model"
)

const insertHealthCheckSQL = `
	INSERT INTO health_checks (
		status, contract_status, network_status, last_block, user_count, recorded_at
	) VALUES ($1, $2, $3, $4, $5, $6)
`

type healthCheckStore struct {
	pool *pgxpool.Pool
}

func (s *healthCheckStore) InsertOne(ctx context.Context, check model.HealthCheck) error {
	_, err := s.pool.Exec(ctx, insertHealthCheckSQL,
		string(check.Status),
		string(check.Details.ContractStatus),
		string(check.Details.NetworkStatus),
		check.Details.LastBlock,
		check.Details.UserCount,
		check.Timestamp,
	)
	return err
}

func (s *healthCheckStore) InsertMany(ctx context.Context, checks []model.HealthCheck, ordered bool) error {
	if len(checks) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, check := range checks {
		batch.Queue(insertHealthCheckSQL,
			string(check.Status),
			string(check.Details.ContractStatus),
			string(check.Details.NetworkStatus),
			check.Details.LastBlock,
			check.Details.UserCount,
			check.Timestamp,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	return execBatch(br, len(checks), ordered)
}

func (s *healthCheckStore) FindRecent(ctx context.Context, limit int) ([]model.HealthCheck, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT status, contract_status, network_status, last_block, user_count, recorded_at
		FROM health_checks
		ORDER BY recorded_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	checks := make([]model.HealthCheck, 0, limit)
	for rows.Next() {
		var check model.HealthCheck
		if err := rows.Scan(
			&check.Status,
			&check.Details.ContractStatus,
			&check.Details.NetworkStatus,
			&check.Details.LastBlock,
			&check.Details.UserCount,
			&check.Timestamp,
		); err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}
	return checks, rows.Err()
}

func (s *healthCheckStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return groupCount(ctx, s.pool, `
		SELECT status, count(*)
		FROM health_checks
		GROUP BY status
	`)
}
