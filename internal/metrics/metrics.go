package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion metrics
var (
	EventsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventscope_events_ingested_total",
		Help: "Total number of chain events handed to the batch writer",
	})

	LastPolledBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eventscope_last_polled_block",
		Help: "Highest block number the ingestion loop has polled",
	})
)

// Writer metrics
var (
	InvalidRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventscope_invalid_records_total",
			Help: "Records rejected before any write attempt, by kind",
		},
		[]string{"kind"},
	)

	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventscope_store_retry_attempts_total",
			Help: "Failed store write attempts that were retried, by kind",
		},
		[]string{"kind"},
	)

	RecordsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventscope_records_recovered_total",
			Help: "Records saved individually after bulk-insert reconciliation, by kind",
		},
		[]string{"kind"},
	)

	RecordsUnconfirmed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventscope_records_unconfirmed_total",
			Help: "Records still unsaved after reconciliation, by kind",
		},
		[]string{"kind"},
	)
)

// Health metrics
var (
	ProbeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventscope_probe_failures_total",
			Help: "Health probe calls that failed, by probe",
		},
		[]string{"probe"},
	)

	HealthChecksRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventscope_health_checks_recorded_total",
		Help: "Health check snapshots persisted to the store",
	})
)
