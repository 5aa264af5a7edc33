package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Fetch pipeline metrics
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_fetches_total",
			Help: "Total number of dashboard data fetches completed",
		},
		[]string{"status"}, // status: success, provider_error, validation_error, cancelled
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_fetch_duration_seconds",
			Help:    "Duration of dashboard provider fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	FetchesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_fetches_rejected_total",
			Help: "Fetch requests dropped because the worker pool was full",
		},
	)

	ActiveFetchJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_active_fetch_jobs",
			Help: "Number of in-flight provider fetches",
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_cache_hits_total",
			Help: "Total dashboard cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_cache_misses_total",
			Help: "Total dashboard cache misses",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_cache_entries",
			Help: "Current number of cached dashboard entries",
		},
	)

	CacheStaleEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_cache_stale_entries",
			Help: "Cached entries past half their TTL but not yet expired",
		},
	)

	CacheSweptEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_cache_swept_entries_total",
			Help: "Expired entries removed by the periodic sweep",
		},
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_cache_invalidations_total",
			Help: "Entries removed by explicit invalidation",
		},
	)

	// Auto-refresh metrics
	AutoRefreshTriggers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_auto_refresh_triggers_total",
			Help: "Fetches triggered by the auto-refresh ticker",
		},
	)

	// Event bus metrics
	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_events_dropped_total",
			Help: "Events dropped because a subscriber channel was full",
		},
		[]string{"type"},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_http_requests_total",
			Help: "Total HTTP requests served",
		},
		[]string{"path", "status"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"}, // scope: global, ip
	)

	// Circuit breaker metrics
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dashboard_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	BreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_breaker_trips_total",
			Help: "Times a circuit breaker opened",
		},
		[]string{"name"},
	)
)
