package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActorIterationsTotal counts every LNS iteration an actor runs,
	// whether or not the candidate was accepted.
	ActorIterationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordinator_actor_iterations_total",
			Help: "Total number of LNS iterations run by tier and asset",
		},
		[]string{"tier", "asset"},
	)

	ActorIterationsAcceptedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordinator_actor_iterations_accepted_total",
			Help: "Total number of LNS iterations whose candidate solution was published",
		},
		[]string{"tier", "asset"},
	)

	ObjectiveValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ordinator_objective_value",
			Help: "Current scalar objective value by tier and asset",
		},
		[]string{"tier", "asset"},
	)

	ActorIterationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ordinator_actor_iteration_duration_seconds",
			Help:    "Time taken for one LNS iteration (destroy+repair+evaluate) in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tier"},
	)

	ActorErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordinator_actor_errors_total",
			Help: "Total number of errors forwarded to an actor's error sink, by tier and site",
		},
		[]string{"tier", "site"},
	)

	ActorRespawnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordinator_actor_respawns_total",
			Help: "Total number of times the orchestrator respawned a crashed actor",
		},
		[]string{"tier", "asset"},
	)

	SnapshotRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordinator_snapshot_cas_retries_total",
			Help: "Total number of compare-and-swap retries on the shared solution snapshot",
		},
		[]string{"tier"},
	)

	// APIRequestsTotal/APIRequestDuration instrument the orchestrator's
	// HTTP request surface (cmd/ordinatord serve).
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordinator_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ordinator_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	ExportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ordinator_export_duration_seconds",
			Help:    "Time taken to produce an export byte stream from a loaded snapshot",
			Buckets: prometheus.DefBuckets,
		},
	)

	ArchiveWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordinator_archive_writes_total",
			Help: "Total number of snapshot composites persisted to the archive",
		},
		[]string{"asset"},
	)
)

func init() {
	prometheus.MustRegister(
		ActorIterationsTotal,
		ActorIterationsAcceptedTotal,
		ObjectiveValue,
		ActorIterationDuration,
		ActorErrorsTotal,
		ActorRespawnsTotal,
		SnapshotRetriesTotal,
		APIRequestsTotal,
		APIRequestDuration,
		ExportDuration,
		ArchiveWritesTotal,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
