package model

import (
	"testing"
	"time"
)

func TestEventValidity(t *testing.T) {
	valid := Event{EventType: "ApiKeyUpdated", ContractAddress: "0x01"}
	if !valid.Valid() {
		t.Fatalf("expected event with type to be valid")
	}

	invalid := Event{ContractAddress: "0x01", BlockNumber: 10}
	if invalid.Valid() {
		t.Fatalf("expected event without type to be invalid")
	}
}

func TestEventNormalizedAssignsIngestionTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	event := Event{EventType: "Transfer"}
	got := event.Normalized(now)
	if !got.Timestamp.Equal(now) {
		t.Fatalf("expected ingestion time %v, got %v", now, got.Timestamp)
	}

	loc := time.FixedZone("UTC+8", 8*3600)
	stamped := Event{EventType: "Transfer", Timestamp: time.Date(2024, 5, 1, 20, 0, 0, 0, loc)}
	got = stamped.Normalized(now)
	if got.Timestamp.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", got.Timestamp.Location())
	}
	if !got.Timestamp.Equal(stamped.Timestamp) {
		t.Fatalf("normalization must not shift the instant: %v != %v", got.Timestamp, stamped.Timestamp)
	}
}

func TestHealthCheckValidity(t *testing.T) {
	if (HealthCheck{Status: StatusHealthy}).Valid() == false {
		t.Fatalf("expected check with status to be valid")
	}
	if (HealthCheck{}).Valid() {
		t.Fatalf("expected check without status to be invalid")
	}
}
