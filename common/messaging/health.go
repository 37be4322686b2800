package messaging

import (
	"context"
	"errors"
	"time"
)

// HealthStatus is the broker section of the health endpoint.
type HealthStatus struct {
	Connected bool          `json:"connected"`
	Latency   time.Duration `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
}

// ErrNoResponders must be returned by Request implementations when nobody
// listens on the subject. It still proves a round trip to the broker.
var ErrNoResponders = errors.New("no responders")

// CheckClientHealth verifies client is connected and measures a ping round
// trip.
func CheckClientHealth(ctx context.Context, client Client) HealthStatus {
	status := HealthStatus{}
	if client == nil {
		status.Error = "messaging disabled"
		return status
	}

	status.Connected = client.IsConnected()
	if !status.Connected {
		status.Error = "not connected to message broker"
		return status
	}

	start := time.Now()
	_, err := client.Request(ctx, SubjectHealthPing, []byte("ping"), 2*time.Second)
	status.Latency = time.Since(start) / time.Millisecond
	if err != nil && !errors.Is(err, ErrNoResponders) {
		status.Error = "health check failed: " + err.Error()
	}
	return status
}
