/*
Package metrics provides Prometheus metrics collection and exposition for
ordinatord.

The metrics package defines and registers every ordinatord metric using the
Prometheus client library: LNS iteration throughput and acceptance rate,
per-tier objective value, actor error and respawn counts, API request
volume/latency, export duration, and archive write counts. Metrics are
exposed over HTTP for scraping by a Prometheus server.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Actor: iterations, acceptance, respawns    │          │
	│  │  Objective: per-tier scalar objective value │          │
	│  │  Snapshot: CAS retry count                  │          │
	│  │  Archive: persisted composite count         │          │
	│  │  API: request count, duration               │          │
	│  │  Export: render duration                    │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics (internal/apiserver)      │          │
	│  │  - Format: Prometheus text exposition       │          │
	│  │  - Handler: metrics.Handler()               │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Usage

Counters and gauges are package-level vars, updated at the point of
measurement rather than through a separate polling collector:

	metrics.ActorIterationsTotal.WithLabelValues("strategic", asset).Inc()
	metrics.ObjectiveValue.WithLabelValues("supervisor", asset).Set(value)

Timers wrap a histogram observation:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ExportDuration)

# Health

HealthChecker (health.go) tracks named component health independently of
Prometheus, for a lightweight /health response that doesn't require a
scrape.
*/
package metrics
