package model

import "time"

// HealthCheckDetails carries the per-component snapshot persisted with a check.
type HealthCheckDetails struct {
	ContractStatus Status `json:"contract_status"`
	NetworkStatus  Status `json:"network_status"`
	LastBlock      int64  `json:"last_block"`
	UserCount      int64  `json:"user_count"`
}

// HealthCheck is one aggregated health snapshot retained for historical query.
// Status is the discriminant field.
type HealthCheck struct {
	Status    Status             `json:"status"`
	Details   HealthCheckDetails `json:"details"`
	Timestamp time.Time          `json:"timestamp"`
}

// Valid reports whether the discriminant field is present.
func (c HealthCheck) Valid() bool {
	return c.Status != ""
}

// Discriminant returns the field records are grouped and reconciled by.
func (c HealthCheck) Discriminant() string {
	return string(c.Status)
}

// Normalized returns a copy with the timestamp coerced to UTC, assigning now
// when no timestamp was set.
func (c HealthCheck) Normalized(now time.Time) HealthCheck {
	if c.Timestamp.IsZero() {
		c.Timestamp = now
	}
	c.Timestamp = c.Timestamp.UTC()
	return c
}
