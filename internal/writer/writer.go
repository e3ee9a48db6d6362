package writer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"eventScope/internal/metrics"
)

// ErrNoValidRecords signals a batch whose valid partition is empty.
var ErrNoValidRecords = errors.New("no valid records to save")

// Record is a persistable record with a discriminant validity field.
type Record[T any] interface {
	Valid() bool
	Discriminant() string
	Normalized(now time.Time) T
}

// Store is the subset of the record store a writer needs for one kind.
type Store[T any] interface {
	InsertOne(ctx context.Context, record T) error
	InsertMany(ctx context.Context, records []T, ordered bool) error
	FindRecent(ctx context.Context, limit int) ([]T, error)
}

// Config controls retry and insert behavior.
type Config struct {
	MaxAttempts int           // write attempt budget, bulk and per-record alike (default 3)
	BaseDelay   time.Duration // first backoff delay, doubled per attempt (default 1s)
	Ordered     bool          // ordered inserts stop at the first failed record
}

// Outcome partitions one SaveBatch call's input.
type Outcome struct {
	Valid       int
	Invalid     int
	Confirmed   int
	Unconfirmed int
}

// Writer saves record batches with retry, backoff, and reconciliation.
type Writer[T Record[T]] struct {
	cfg        Config
	store      Store[T]
	kind       string
	logger     *zap.Logger
	deadletter *Deadletter
}

func New[T Record[T]](cfg Config, store Store[T], kind string, logger *zap.Logger) *Writer[T] {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer[T]{cfg: cfg, store: store, kind: kind, logger: logger}
}

// WithDeadletter routes unconfirmed records to a JSONL sink.
func (w *Writer[T]) WithDeadletter(dl *Deadletter) *Writer[T] {
	w.deadletter = dl
	return w
}

// SaveBatch persists every valid record on a best-effort basis.
//
// Invalid records are counted and reported, never written. When the bulk
// insert exhausts its retries, the writer reconciles against the store's
// recent window, matching intended records by discriminant; concurrent
// batches that share discriminants can therefore be misread as already saved.
// A client-generated idempotency key per record would close that gap.
// Per-record failures after reconciliation are logged and dead-lettered, not
// returned. The only hard failures are an empty valid partition
// (ErrNoValidRecords) and a store that cannot be reached at all.
func (w *Writer[T]) SaveBatch(ctx context.Context, records []T) (Outcome, error) {
	var out Outcome
	valid := make([]T, 0, len(records))
	for _, record := range records {
		if record.Valid() {
			valid = append(valid, record)
		} else {
			out.Invalid++
		}
	}
	out.Valid = len(valid)

	if out.Invalid > 0 {
		metrics.InvalidRecords.WithLabelValues(w.kind).Add(float64(out.Invalid))
		w.logger.Warn("invalid records rejected from batch",
			zap.String("kind", w.kind),
			zap.Int("invalid", out.Invalid),
			zap.Int("valid", out.Valid),
		)
	}
	if len(valid) == 0 {
		return out, ErrNoValidRecords
	}

	now := time.Now().UTC()
	for i := range valid {
		valid[i] = valid[i].Normalized(now)
	}

	bulkErr := w.retry(ctx, "bulk insert", func(ctx context.Context) error {
		return w.store.InsertMany(ctx, valid, w.cfg.Ordered)
	})
	if bulkErr == nil {
		out.Confirmed = len(valid)
		return out, nil
	}
	if ctx.Err() != nil {
		return out, bulkErr
	}

	w.logger.Error("bulk insert exhausted retries, reconciling",
		zap.String("kind", w.kind),
		zap.Int("records", len(valid)),
		zap.Error(bulkErr),
	)

	confirmed, unconfirmed, err := w.reconcile(ctx, valid)
	if err != nil {
		return out, fmt.Errorf("reconcile %s batch: %w", w.kind, err)
	}
	out.Confirmed = confirmed
	out.Unconfirmed = unconfirmed
	return out, nil
}

// reconcile determines which intended records reached the store and retries
// the gap one record at a time.
func (w *Writer[T]) reconcile(ctx context.Context, intended []T) (confirmed, unconfirmed int, err error) {
	saved, err := w.store.FindRecent(ctx, len(intended))
	if err != nil {
		return 0, 0, err
	}

	seen := make(map[string]struct{}, len(saved))
	for _, record := range saved {
		seen[record.Discriminant()] = struct{}{}
	}

	unsaved := make([]T, 0, len(intended))
	for _, record := range intended {
		if _, ok := seen[record.Discriminant()]; ok {
			confirmed++
			continue
		}
		unsaved = append(unsaved, record)
	}

	for _, record := range unsaved {
		record := record
		insertErr := w.retry(ctx, "individual insert", func(ctx context.Context) error {
			return w.store.InsertOne(ctx, record)
		})
		if insertErr != nil {
			unconfirmed++
			metrics.RecordsUnconfirmed.WithLabelValues(w.kind).Inc()
			w.logger.Error("record unsaved after reconciliation",
				zap.String("kind", w.kind),
				zap.String("discriminant", record.Discriminant()),
				zap.Error(insertErr),
			)
			if w.deadletter != nil {
				if dlErr := w.deadletter.Append(record); dlErr != nil {
					w.logger.Error("dead-letter append failed",
						zap.String("kind", w.kind),
						zap.Error(dlErr),
					)
				}
			}
			continue
		}
		confirmed++
		metrics.RecordsRecovered.WithLabelValues(w.kind).Inc()
	}

	return confirmed, unconfirmed, nil
}

func (w *Writer[T]) retry(ctx context.Context, op string, fn func(context.Context) error) error {
	attempt := 0
	return Backoff(ctx, w.cfg.MaxAttempts, w.cfg.BaseDelay, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err != nil {
			metrics.RetryAttempts.WithLabelValues(w.kind).Inc()
			w.logger.Warn("store write failed",
				zap.String("kind", w.kind),
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return err
	})
}
