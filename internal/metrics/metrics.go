package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "starterkit"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// LoginAttemptsTotal counts recorded login attempts by status
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Recorded login attempts by status",
	}, []string{"status"})

	LoginRecordFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_record_failures_total",
		Help:      "Login attempts that could not be recorded",
	})

	SuspiciousActivityTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "suspicious_activity_detected_total",
		Help:      "Suspicious activity checks that flagged an account",
	})

	// GeoLookupsTotal counts geolocation lookups by outcome:
	// success, failure, skipped or cache_hit
	GeoLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geolocation_lookups_total",
		Help:      "IP geolocation lookups by outcome",
	}, []string{"outcome"})

	GeoLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "geolocation_lookup_duration_seconds",
		Help:      "Latency of upstream IP geolocation requests",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1},
	})

	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "table_exports_total",
		Help:      "Table exports by format",
	}, []string{"format"})

	ProjectsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "projects_deleted_total",
		Help:      "Projects deleted, single and bulk",
	})
)

const (
	GeoOutcomeSuccess  = "success"
	GeoOutcomeFailure  = "failure"
	GeoOutcomeSkipped  = "skipped"
	GeoOutcomeCacheHit = "cache_hit"
)
