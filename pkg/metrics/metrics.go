// Package metrics exposes the orchestrator's and machine lifecycle's
// Prometheus instrumentation (spec §5/§9's per-machine task model):
// transition counters and durations, retry counts, and tool-adapter call
// outcomes, scraped over the HTTP control surface's "/metrics" endpoint
// alongside the health/readiness/liveness probes in health.go.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MachineTransitions counts completed lifecycle transitions by target
	// state and outcome (spec §4.10's state machine).
	MachineTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipwright_machine_transitions_total",
			Help: "Total number of machine lifecycle transitions by target state and outcome",
		},
		[]string{"state", "outcome"},
	)

	// MachineTransitionDuration observes the wall-clock time of one
	// transition, including its retries.
	MachineTransitionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shipwright_machine_transition_duration_seconds",
			Help:    "Time taken to complete one machine lifecycle transition",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"state"},
	)

	// MachineRetries counts transient-failure retries attempted across all
	// transitions (spec §5's "retried up to N=3").
	MachineRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipwright_machine_retries_total",
			Help: "Total number of transient-failure retries across machine transitions",
		},
		[]string{"state"},
	)

	// MachinesFailed counts machines that reached the failed terminal
	// state during an "up" run (spec §4.10's permanent-failure path).
	MachinesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipwright_machines_failed_total",
			Help: "Total number of machines that failed a lifecycle transition",
		},
		[]string{"state"},
	)

	// AdapterCalls counts every Tool Adapter invocation by tool and exit
	// outcome (spec §6's tool adapter contract).
	AdapterCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipwright_adapter_calls_total",
			Help: "Total number of external tool invocations by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)

	// AdapterCallDuration observes one Tool Adapter invocation's duration.
	AdapterCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shipwright_adapter_call_duration_seconds",
			Help:    "Duration of external tool invocations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	// TokenRegenerations counts swarm join token (re)generations, split by
	// whether the call was forced (spec §4.5).
	TokenRegenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipwright_token_regenerations_total",
			Help: "Total number of swarm join token (re)generations",
		},
		[]string{"forced"},
	)

	// DiscoveryCacheWrites counts discovery cache rewrites (spec §4.4's
	// whole-file atomic rewrite).
	DiscoveryCacheWrites = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shipwright_discovery_cache_writes_total",
			Help: "Total number of discovery cache rewrites",
		},
	)

	// HTTPRequestsTotal counts requests served by the HTTP control surface
	// by verb route and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipwright_http_requests_total",
			Help: "Total number of HTTP control-surface requests by route and status",
		},
		[]string{"route", "status"},
	)

	// HTTPRequestDuration observes HTTP control-surface request latency.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shipwright_http_request_duration_seconds",
			Help:    "HTTP control-surface request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(
		MachineTransitions,
		MachineTransitionDuration,
		MachineRetries,
		MachinesFailed,
		AdapterCalls,
		AdapterCallDuration,
		TokenRegenerations,
		DiscoveryCacheWrites,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// Handler returns the Prometheus scrape handler for "/metrics".
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a small helper for timing an operation and recording its
// duration to a histogram once it completes.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to a plain histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time to a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
