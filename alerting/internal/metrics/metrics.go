package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels of SummaryRequestsTotal.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
	OutcomeDenied   = "denied"
	TransportHTTP   = "http"
	TransportNATS   = "nats"
	TransportExport = "export"
)

var (
	// Summary request metrics
	SummaryRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_alerting_summary_requests_total",
			Help: "Total number of watch summary requests",
		},
		[]string{"transport", "outcome"},
	)

	SummaryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telhawk_alerting_summary_duration_seconds",
			Help:    "Duration of watch summary assembly in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SummaryWatchesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telhawk_alerting_summary_watches_returned",
			Help:    "Number of watches in an assembled summary",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// Store metrics
	StatusSourcesFetched = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telhawk_alerting_status_sources_fetched",
			Help:    "Number of status index generations merged per request",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_alerting_store_errors_total",
			Help: "Total number of failed calls to backing stores",
		},
		[]string{"store"},
	)

	// Allow-list cache metrics
	AllowListCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_alerting_allowlist_cache_total",
			Help: "Allow-list cache lookups by result",
		},
		[]string{"result"},
	)
)
