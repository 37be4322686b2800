// Package database holds the timeouts shared by the alerting stores.
package database

import (
	"context"
	"time"
)

const (
	// DefaultQueryTimeout bounds reads: status searches, allow-list queries.
	DefaultQueryTimeout = 5 * time.Second

	// DefaultWriteTimeout bounds single-row writes.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultBulkTimeout bounds bulk indexing.
	DefaultBulkTimeout = 30 * time.Second
)

// Timeouts bounds store operations by kind. A zero field uses the matching
// default.
type Timeouts struct {
	Query time.Duration `mapstructure:"query"`
	Write time.Duration `mapstructure:"write"`
	Bulk  time.Duration `mapstructure:"bulk"`
}

// DefaultTimeouts returns the built-in limits.
func DefaultTimeouts() Timeouts {
	return Timeouts{Query: DefaultQueryTimeout, Write: DefaultWriteTimeout, Bulk: DefaultBulkTimeout}
}

// QueryContext derives a context limited to the query timeout. A shorter
// parent deadline is kept.
func (t Timeouts) QueryContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, orDefault(t.Query, DefaultQueryTimeout))
}

// WriteContext derives a context limited to the write timeout.
func (t Timeouts) WriteContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, orDefault(t.Write, DefaultWriteTimeout))
}

// BulkContext derives a context limited to the bulk timeout.
func (t Timeouts) BulkContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, orDefault(t.Bulk, DefaultBulkTimeout))
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
