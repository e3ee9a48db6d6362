package model

import "time"

// Event is the normalized representation of one on-chain contract occurrence.
// EventType is the discriminant field: an event without it is invalid and is
// never persisted.
type Event struct {
	EventType       string         `json:"event_type"`
	ContractAddress string         `json:"contract_address"`
	BlockNumber     uint64         `json:"block_number"`
	TransactionHash string         `json:"transaction_hash"`
	Data            map[string]any `json:"data,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Valid reports whether the discriminant field is present.
func (e Event) Valid() bool {
	return e.EventType != ""
}

// Discriminant returns the field records are grouped and reconciled by.
func (e Event) Discriminant() string {
	return e.EventType
}

// Normalized returns a copy with the timestamp coerced to UTC, assigning now
// when no timestamp was set at ingestion.
func (e Event) Normalized(now time.Time) Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	e.Timestamp = e.Timestamp.UTC()
	return e
}
