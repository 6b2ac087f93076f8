// Package metrics exposes Cadence's Prometheus instruments on a private
// registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cadence"

// Metrics holds every instrument. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	mutations       *prometheus.CounterVec
	completions     prometheus.Counter
	spawned         prometheus.Counter
	spawnFailures   prometheus.Counter
	batchSize       *prometheus.HistogramVec
	conflicts       prometheus.Gauge
	rollovers       prometheus.Counter
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates and registers all instruments.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "task_mutations_total",
				Help:      "Task mutations by action and outcome.",
			},
			[]string{"action", "outcome"},
		),
		completions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_completed_total",
			Help:      "Tasks transitioned to completed.",
		}),
		spawned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recurrence_spawned_total",
			Help:      "Follow-up tasks created from recurring rules.",
		}),
		spawnFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recurrence_spawn_failures_total",
			Help:      "Follow-up tasks that could not be stored.",
		}),
		batchSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_size",
				Help:      "Number of tasks touched per batch operation.",
				Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
			},
			[]string{"op"},
		),
		conflicts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "conflicts_last_checked",
			Help:      "Conflict pairs found by the most recent day check.",
		}),
		rollovers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "day_rollovers_total",
			Help:      "Calendar date changes observed.",
		}),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	registry.MustRegister(
		m.mutations, m.completions, m.spawned, m.spawnFailures,
		m.batchSize, m.conflicts, m.rollovers,
		m.requestsTotal, m.requestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Mutation counts one task mutation.
func (m *Metrics) Mutation(action, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(action, outcome).Inc()
}

// Completed counts a transition to completed.
func (m *Metrics) Completed() {
	if m == nil {
		return
	}
	m.completions.Inc()
}

// Spawned counts a recurrence follow-up.
func (m *Metrics) Spawned() {
	if m == nil {
		return
	}
	m.spawned.Inc()
}

// SpawnFailed counts a follow-up that failed to persist.
func (m *Metrics) SpawnFailed() {
	if m == nil {
		return
	}
	m.spawnFailures.Inc()
}

// Batch records the size of a batch operation.
func (m *Metrics) Batch(op string, n int) {
	if m == nil {
		return
	}
	m.batchSize.WithLabelValues(op).Observe(float64(n))
}

// Conflicts records the pair count of the latest conflict check.
func (m *Metrics) Conflicts(n int) {
	if m == nil {
		return
	}
	m.conflicts.Set(float64(n))
}

// Rollover counts a calendar date change.
func (m *Metrics) Rollover() {
	if m == nil {
		return
	}
	m.rollovers.Inc()
}

// Request records one served HTTP request.
func (m *Metrics) Request(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, path, status).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(seconds)
}
