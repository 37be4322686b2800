// Package nats serves watch summary requests over NATS request/reply.
package nats

import (
	"encoding/json"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
)

// SummaryJobRequest is the message format for the alerting.summary.query subject.
type SummaryJobRequest struct {
	JobID   string `json:"job_id"`
	Tenant  string `json:"tenant"`
	Sorting string `json:"sorting,omitempty"`
	// Criteria is the same body the HTTP endpoint accepts.
	Criteria json.RawMessage `json:"criteria,omitempty"`
}

// SeedNotification is announced on alerting.summary.seeded.<tenant> after
// the seeder wrote status documents and definitions.
type SeedNotification struct {
	Tenant      string `json:"tenant"`
	Watches     int    `json:"watches"`
	Definitions int    `json:"definitions"`
	Pruned      int    `json:"pruned,omitempty"`
}

// SummaryJobResponse is published to the reply subject of a SummaryJobRequest.
type SummaryJobResponse struct {
	JobID   string                `json:"job_id"`
	Success bool                  `json:"success"`
	Error   string                `json:"error,omitempty"`
	Invalid bool                  `json:"invalid,omitempty"`
	Watches []models.WatchSummary `json:"watches"`
	TookMs  int64                 `json:"took_ms"`
}
