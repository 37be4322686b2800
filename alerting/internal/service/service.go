// Package service orchestrates one watch summary request: parse, fetch,
// merge, trim, filter and sort.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/actionfilter"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/cache"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/criteria"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/merge"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/metrics"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/report"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/sorting"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/storage"
	"github.com/telhawk-systems/telhawk-watch/common/logging"
)

// ValidationError is a client error. Its message is returned verbatim.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a client error.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// StatusStore yields the partial summary sets of a tenant, one per source.
type StatusStore interface {
	FetchSources(ctx context.Context, tenant string, sorts []sorting.SortByField) ([][]models.WatchSummary, error)
}

// DefinitionSource yields the current action names of every watch.
type DefinitionSource interface {
	ListActionNames(ctx context.Context, tenant string) ([]models.WatchActionNames, error)
}

// AllowListCache caches DefinitionSource results per tenant.
type AllowListCache interface {
	Get(ctx context.Context, tenant string) ([]models.WatchActionNames, error)
	Set(ctx context.Context, tenant string, defs []models.WatchActionNames) error
}

// SummaryService builds watch summary reports.
type SummaryService struct {
	store       StatusStore
	definitions DefinitionSource
	cache       AllowListCache
	logger      *logging.Logger
	now         func() time.Time
}

// Option configures a SummaryService.
type Option func(*SummaryService)

// WithCache puts an allow-list cache in front of the definition source.
func WithCache(c AllowListCache) Option {
	return func(s *SummaryService) { s.cache = c }
}

// WithLogger sets the logger. The default is logging.Default.
func WithLogger(l *logging.Logger) Option {
	return func(s *SummaryService) { s.logger = l }
}

// NewSummaryService creates a service. definitions may be nil, in which case
// actions are never trimmed.
func NewSummaryService(store StatusStore, definitions DefinitionSource, opts ...Option) *SummaryService {
	s := &SummaryService{
		store:       store,
		definitions: definitions,
		logger:      logging.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logging.FieldComponent, "summary")
	return s
}

// Summarize assembles the report for req. Sort expression, criteria and
// tenant are validated before any store is contacted.
func (s *SummaryService) Summarize(ctx context.Context, req models.SummaryRequest) (*models.Report, error) {
	start := s.now()
	log := s.logger.WithContext(ctx).With(logging.Tenant(req.Tenant), logging.Sorting(req.Sorting))

	if err := storage.ValidateTenant(req.Tenant); err != nil {
		return nil, &ValidationError{Err: err}
	}
	keys, err := sorting.Parse(req.Sorting)
	if err != nil {
		log.DebugContext(ctx, "rejected sort expression", logging.Error(err))
		return nil, &ValidationError{Err: err}
	}
	c, err := criteria.Decode(req.Criteria)
	if err != nil {
		log.DebugContext(ctx, "rejected criteria", logging.Error(err))
		return nil, &ValidationError{Err: err}
	}
	pass, err := criteria.Build(c)
	if err != nil {
		log.DebugContext(ctx, "rejected criteria", logging.Error(err))
		return nil, &ValidationError{Err: err}
	}

	sets, err := s.store.FetchSources(ctx, req.Tenant, keys)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("opensearch").Inc()
		log.ErrorContext(ctx, "failed to fetch watch status", logging.Error(err))
		return nil, fmt.Errorf("fetch watch status: %w", err)
	}
	metrics.StatusSourcesFetched.Observe(float64(len(sets)))

	rows := merge.Summaries(sets...)
	rows = actionfilter.Apply(rows, s.allowList(ctx, req.Tenant))
	r := report.Assemble(rows, pass, keys)

	elapsed := s.now().Sub(start)
	metrics.SummaryDuration.Observe(elapsed.Seconds())
	metrics.SummaryWatchesReturned.Observe(float64(len(r.Watches)))
	log.InfoContext(ctx, "assembled watch summary",
		logging.WatchCount(len(r.Watches)), slog.Int("sources", len(sets)), logging.Duration(elapsed))
	return &r, nil
}

// allowList loads the allow-lists of tenant from the cache, then the
// definition source. When neither can answer it returns nil, which leaves
// every watch untouched.
func (s *SummaryService) allowList(ctx context.Context, tenant string) []models.WatchActionNames {
	log := s.logger.WithContext(ctx).With(logging.Tenant(tenant))

	if s.cache != nil {
		defs, err := s.cache.Get(ctx, tenant)
		switch {
		case err == nil:
			metrics.AllowListCacheTotal.WithLabelValues("hit").Inc()
			return defs
		case errors.Is(err, cache.ErrMiss):
			metrics.AllowListCacheTotal.WithLabelValues("miss").Inc()
		default:
			metrics.AllowListCacheTotal.WithLabelValues("error").Inc()
			log.WarnContext(ctx, "allow-list cache unavailable", logging.Error(err))
		}
	}

	if s.definitions == nil {
		return nil
	}
	defs, err := s.definitions.ListActionNames(ctx, tenant)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("postgres").Inc()
		log.ErrorContext(ctx, "failed to load watch definitions; actions are not trimmed", logging.Error(err))
		return nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, tenant, defs); err != nil {
			log.WarnContext(ctx, "failed to cache allow-lists", logging.Error(err))
		}
	}
	return defs
}
