// Package metrics provides Prometheus metrics for the matchd service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the matching service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Scoring metrics
	scoringRuns      prometheus.Counter
	scoringReused    prometheus.Counter
	scoringErrors    prometheus.Counter
	scoringRejected  prometheus.Counter
	scoringLatency   prometheus.Histogram
	snapshotsWritten prometheus.Counter
	snapshotSize     prometheus.Histogram

	// Configuration metrics
	configLoads        prometheus.Counter
	configLoadFallback prometheus.Counter
	configUpdates      prometheus.Counter
	configUpdateErrors prometheus.Counter

	// Invitation metrics
	invitesRequested prometheus.Counter
	invitesSent      prometheus.Counter
	invitesFailed    prometheus.Counter
	invitesExpired   prometheus.Counter

	// Rescore pipeline metrics
	queueCapacity    prometheus.Gauge
	queueSize        prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueRejections  prometheus.Counter
	workerActive     prometheus.Gauge
	workerLatency    prometheus.Histogram
	workerErrors     prometheus.Counter
	rescoreSweeps    prometheus.Counter
	rescoreEnqueued  prometheus.Counter

	// Pool gauges
	requestsTracked  prometheus.Gauge
	candidatePool    prometheus.Gauge
	computesInFlight prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "matchd",
		subsystem:        "matching",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // metric registration is one long list
	auto := promauto.With(m.registry)

	m.scoringRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "scoring_runs_total",
		Help: "Total number of completed scoring runs",
	})
	m.scoringReused = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "scoring_reused_total",
		Help: "Total number of compute calls satisfied by an existing snapshot",
	})
	m.scoringErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "scoring_errors_total",
		Help: "Total number of scoring runs that failed",
	})
	m.scoringRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "scoring_rejected_total",
		Help: "Total number of compute calls rejected by the re-entrancy guard",
	})
	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "scoring_latency_milliseconds",
		Help:    "Histogram of scoring run latency in milliseconds",
		Buckets: m.histogramBuckets,
	})
	m.snapshotsWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "snapshots_written_total",
		Help: "Total number of snapshots persisted",
	})
	m.snapshotSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "snapshot_candidates",
		Help:    "Histogram of ranked candidates per snapshot",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 25, 50, 100},
	})

	m.configLoads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "config_loads_total",
		Help: "Total number of matching configuration loads",
	})
	m.configLoadFallback = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "config_load_fallbacks_total",
		Help: "Total number of configuration loads that fell back to defaults",
	})
	m.configUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "config_updates_total",
		Help: "Total number of matching configuration updates",
	})
	m.configUpdateErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "config_update_errors_total",
		Help: "Total number of configuration updates that failed (possibly partially written)",
	})

	m.invitesRequested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "invitations_requested_total",
		Help: "Total number of invitations requested for dispatch",
	})
	m.invitesSent = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "invitations_sent_total",
		Help: "Total number of invitations the dispatcher confirmed",
	})
	m.invitesFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "invitations_failed_total",
		Help: "Total number of invitations the dispatcher reported failed",
	})
	m.invitesExpired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "invitations_expired_total",
		Help: "Total number of pending invitations expired past their SLA",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rescore_queue_capacity",
		Help: "Capacity of the rescore job queue",
	})
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rescore_queue_size",
		Help: "Current number of queued rescore jobs",
	})
	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rescore_enqueues_total",
		Help: "Total number of rescore jobs enqueued",
	})
	m.queueRejections = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rescore_rejections_total",
		Help: "Total number of rescore jobs rejected (backpressure or duplicate)",
	})
	m.workerActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rescore_workers",
		Help: "Number of rescore workers",
	})
	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "rescore_job_latency_milliseconds",
		Help:    "Histogram of rescore job latency in milliseconds",
		Buckets: m.histogramBuckets,
	})
	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rescore_job_errors_total",
		Help: "Total number of rescore jobs that failed",
	})
	m.rescoreSweeps = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rescore_sweeps_total",
		Help: "Total number of stale-snapshot sweeps",
	})
	m.rescoreEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rescore_sweep_enqueued_total",
		Help: "Total number of requests queued by the stale-snapshot sweep",
	})

	m.requestsTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "requests_tracked",
		Help: "Number of client requests known to the matcher",
	})
	m.candidatePool = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "candidate_pool",
		Help: "Number of candidate profiles known to the matcher",
	})
	m.computesInFlight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "computes_in_flight",
		Help: "Number of scoring runs currently in flight",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http",
		Name: "requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "http",
		Name:    "request_duration_milliseconds",
		Help:    "Histogram of HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http",
		Name: "errors_total",
		Help: "Total number of HTTP error responses by endpoint and class",
	}, []string{"endpoint", "method", "class"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system",
		Name: "memory_bytes",
		Help: "Current allocated memory in bytes",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system",
		Name: "goroutines",
		Help: "Current number of goroutines",
	})
}

// Scoring helpers.

func RecordScoringRun() { globalManager.scoringRuns.Inc() }
func RecordScoringReused() { globalManager.scoringReused.Inc() }
func RecordScoringError() { globalManager.scoringErrors.Inc() }
func RecordScoringRejected() { globalManager.scoringRejected.Inc() }
func RecordScoringLatency(ms float64) { globalManager.scoringLatency.Observe(ms) }
func RecordSnapshotWritten(size int) {
	globalManager.snapshotsWritten.Inc()
	globalManager.snapshotSize.Observe(float64(size))
}

// Configuration helpers.

func RecordConfigLoad() { globalManager.configLoads.Inc() }
func RecordConfigLoadFallback() { globalManager.configLoadFallback.Inc() }
func RecordConfigUpdate() { globalManager.configUpdates.Inc() }
func RecordConfigUpdateError() { globalManager.configUpdateErrors.Inc() }

// Invitation helpers.

func RecordInvitationsRequested(n int) { globalManager.invitesRequested.Add(float64(n)) }
func RecordInvitationsSent(n int) { globalManager.invitesSent.Add(float64(n)) }
func RecordInvitationsFailed(n int) { globalManager.invitesFailed.Add(float64(n)) }
func RecordInvitationsExpired(n int) { globalManager.invitesExpired.Add(float64(n)) }

// Rescore pipeline helpers.

func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }
func RecordQueueEnqueue() { globalManager.queueEnqueues.Inc() }
func RecordQueueRejection() { globalManager.queueRejections.Inc() }
func UpdateWorkerCount(count int) { globalManager.workerActive.Set(float64(count)) }
func RecordWorkerLatency(ms float64) { globalManager.workerLatency.Observe(ms) }
func RecordWorkerError() { globalManager.workerErrors.Inc() }
func RecordRescoreSweep() { globalManager.rescoreSweeps.Inc() }
func RecordRescoreSweepEnqueued(n int) { globalManager.rescoreEnqueued.Add(float64(n)) }

// Pool gauges.

func UpdateRequestsTracked(count int) { globalManager.requestsTracked.Set(float64(count)) }
func UpdateCandidatePool(count int) { globalManager.candidatePool.Set(float64(count)) }
func UpdateComputesInFlight(count int) { globalManager.computesInFlight.Set(float64(count)) }

// HTTP helpers.

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

func RecordHTTPError(endpoint, method, class string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, class).Inc()
}

// System helpers.

func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the custom registry served by /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
