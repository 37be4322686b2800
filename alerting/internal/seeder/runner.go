package seeder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
	"github.com/telhawk-systems/telhawk-watch/common/logging"
	"github.com/telhawk-systems/telhawk-watch/common/messaging"
)

// StatusWriter bulk-writes status documents.
type StatusWriter interface {
	Index(ctx context.Context, tenant string, summaries []models.WatchSummary) error
}

// DefinitionWriter stores watch definitions.
type DefinitionWriter interface {
	ListActionNames(ctx context.Context, tenant string) ([]models.WatchActionNames, error)
	UpsertDefinition(ctx context.Context, tenant string, def models.WatchActionNames) error
	DeleteDefinition(ctx context.Context, tenant, watchID string) error
}

// Config controls one seeding run.
type Config struct {
	Tenant    string
	Count     int
	BatchSize int
	Seed      int64
	// Prune deletes definitions of the tenant that this run did not write.
	Prune bool
}

// Result summarizes a seeding run.
type Result struct {
	Tenant      string `json:"tenant"`
	Watches     int    `json:"watches"`
	Definitions int    `json:"definitions"`
	Pruned      int    `json:"pruned,omitempty"`
}

// Runner writes generated data to the stores.
type Runner struct {
	status    StatusWriter
	defs      DefinitionWriter
	publisher messaging.Publisher
	logger    *logging.Logger
	now       func() time.Time
}

// NewRunner creates a runner. defs and publisher may be nil.
func NewRunner(status StatusWriter, defs DefinitionWriter, publisher messaging.Publisher, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{status: status, defs: defs, publisher: publisher, logger: logger, now: time.Now}
}

// Run generates cfg.Count watches in batches and writes them.
func (r *Runner) Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.Count <= 0 {
		return Result{}, fmt.Errorf("count must be positive, got %d", cfg.Count)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}

	gen := NewGenerator(cfg.Seed, r.now())
	res := Result{Tenant: cfg.Tenant}
	written := make(map[string]struct{}, cfg.Count)
	r.logger.InfoContext(ctx, "Starting watch status seeder",
		logging.Tenant(cfg.Tenant), logging.WatchCount(cfg.Count), slog.Int("batch_size", cfg.BatchSize))

	for start := 0; start < cfg.Count; start += cfg.BatchSize {
		n := min(cfg.BatchSize, cfg.Count-start)
		watches, defs := gen.Batch(cfg.Tenant, start, n)

		if err := r.status.Index(ctx, cfg.Tenant, watches); err != nil {
			return res, fmt.Errorf("index batch at %d: %w", start, err)
		}
		res.Watches += len(watches)

		if r.defs != nil {
			for _, d := range defs {
				if err := r.defs.UpsertDefinition(ctx, cfg.Tenant, d); err != nil {
					return res, fmt.Errorf("upsert definition %s: %w", d.WatchID, err)
				}
				written[d.WatchID] = struct{}{}
				res.Definitions++
			}
		}
		r.logger.DebugContext(ctx, "Seeded batch", logging.Tenant(cfg.Tenant), slog.Int("seeded", res.Watches))
	}

	if r.defs != nil && cfg.Prune {
		pruned, err := r.prune(ctx, cfg.Tenant, written)
		res.Pruned = pruned
		if err != nil {
			return res, err
		}
	}

	if r.publisher != nil {
		data, err := json.Marshal(res)
		if err != nil {
			return res, fmt.Errorf("marshal seed result: %w", err)
		}
		subject := messaging.TenantSubject(messaging.SubjectAlertingSummarySeeded, cfg.Tenant)
		if err := r.publisher.Publish(ctx, subject, data); err != nil {
			r.logger.WarnContext(ctx, "Failed to publish seed notification", logging.Error(err))
		}
	}

	r.logger.InfoContext(ctx, "Seeding complete",
		logging.Tenant(cfg.Tenant), logging.WatchCount(res.Watches),
		slog.Int("definitions", res.Definitions), slog.Int("pruned", res.Pruned))
	return res, nil
}

func (r *Runner) prune(ctx context.Context, tenant string, keep map[string]struct{}) (int, error) {
	existing, err := r.defs.ListActionNames(ctx, tenant)
	if err != nil {
		return 0, fmt.Errorf("list definitions: %w", err)
	}
	pruned := 0
	for _, def := range existing {
		if _, ok := keep[def.WatchID]; ok {
			continue
		}
		if err := r.defs.DeleteDefinition(ctx, tenant, def.WatchID); err != nil {
			return pruned, fmt.Errorf("delete definition %s: %w", def.WatchID, err)
		}
		pruned++
	}
	return pruned, nil
}
