package model

import "time"

// Status is a coarse health classification.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// NetworkHealth is the network probe's sub-status. Latency and block carry -1
// when the probe call failed.
type NetworkHealth struct {
	Status    Status `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	LastBlock int64  `json:"last_block"`
}

// ContractHealth is the contract liveness probe's sub-status.
type ContractHealth struct {
	Status    Status `json:"status"`
	Address   string `json:"address"`
	LastEvent string `json:"last_event,omitempty"`
}

// IndexerHealth is the local ingestion progress sub-status.
type IndexerHealth struct {
	Status          Status    `json:"status"`
	LastPoll        time.Time `json:"last_poll"`
	EventsProcessed int64     `json:"events_processed"`
}

// CredentialHealth reports whether a credential-rotation event has been seen.
type CredentialHealth struct {
	Status     Status     `json:"status"`
	LastUpdate *time.Time `json:"last_update"`
}

// HealthStatus is the aggregator's composite output for one cycle.
type HealthStatus struct {
	Timestamp  time.Time        `json:"timestamp"`
	Network    NetworkHealth    `json:"network"`
	Contract   ContractHealth   `json:"contract"`
	Indexer    IndexerHealth    `json:"indexer"`
	Credential CredentialHealth `json:"credential"`
}

// Overall composes the sub-statuses with unhealthy > degraded > healthy
// precedence.
func (h HealthStatus) Overall() Status {
	worst := StatusHealthy
	for _, status := range []Status{h.Network.Status, h.Contract.Status, h.Indexer.Status, h.Credential.Status} {
		if statusRank(status) > statusRank(worst) {
			worst = status
		}
	}
	return worst
}

// Check converts the composite status into a persistable HealthCheck record.
func (h HealthStatus) Check() HealthCheck {
	return HealthCheck{
		Status:    h.Overall(),
		Timestamp: h.Timestamp,
		Details: HealthCheckDetails{
			ContractStatus: h.Contract.Status,
			NetworkStatus:  h.Network.Status,
			LastBlock:      h.Network.LastBlock,
			UserCount:      h.Indexer.EventsProcessed,
		},
	}
}

func statusRank(s Status) int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}
