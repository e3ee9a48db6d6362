package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eventScope/internal/model"
)

const insertEventSQL = `
	INSERT INTO contract_events (
		event_type, contract_address, block_number, transaction_hash, data, recorded_at
	) VALUES ($1, $2, $3, $4, $5, $6)
`

type eventStore struct {
	pool *pgxpool.Pool
}

func (s *eventStore) InsertOne(ctx context.Context, event model.Event) error {
	_, err := s.pool.Exec(ctx, insertEventSQL,
		event.EventType,
		event.ContractAddress,
		int64(event.BlockNumber),
		event.TransactionHash,
		event.Data,
		event.Timestamp,
	)
	return err
}

func (s *eventStore) InsertMany(ctx context.Context, events []model.Event, ordered bool) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(insertEventSQL,
			event.EventType,
			event.ContractAddress,
			int64(event.BlockNumber),
			event.TransactionHash,
			event.Data,
			event.Timestamp,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	return execBatch(br, len(events), ordered)
}

func (s *eventStore) FindRecent(ctx context.Context, limit int) ([]model.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT event_type, contract_address, block_number, transaction_hash, data, recorded_at
		FROM contract_events
		ORDER BY recorded_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]model.Event, 0, limit)
	for rows.Next() {
		var event model.Event
		var blockNumber int64
		if err := rows.Scan(
			&event.EventType,
			&event.ContractAddress,
			&blockNumber,
			&event.TransactionHash,
			&event.Data,
			&event.Timestamp,
		); err != nil {
			return nil, err
		}
		event.BlockNumber = uint64(blockNumber)
		events = append(events, event)
	}
	return events, rows.Err()
}

func (s *eventStore) CountByType(ctx context.Context) (map[string]int64, error) {
	return groupCount(ctx, s.pool, `
		SELECT event_type, count(*)
		FROM contract_events
		GROUP BY event_type
	`)
}
