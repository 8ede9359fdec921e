// Package monitoring wires Prometheus metrics for the scheduler, grounded
// on the teacher's internal/infrastructure/monitoring/metrics.go (promauto
// constructor shape, namespace-prefixed vecs), narrowed to the counters and
// histograms a dataflow scheduler's hot path actually produces: plan
// duration, nodes executed, invoke failures, and snapshot cache hits.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector the scheduler records against.
type Metrics struct {
	PlanDuration    *prometheus.HistogramVec
	NodesExecuted   *prometheus.CounterVec
	NodesFailed     *prometheus.CounterVec
	RunsCompleted   prometheus.Counter
	RunsCancelled   prometheus.Counter
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
	HTTPLatency     *prometheus.HistogramVec
}

// New registers and returns the metric set under namespace (e.g.
// "dataflow"), using promauto exactly as the teacher's NewMetrics does so
// collectors register against prometheus.DefaultRegisterer automatically.
func New(namespace string) *Metrics {
	return &Metrics{
		PlanDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_duration_seconds",
			Help:      "Time spent in Preprocess per planning cycle.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"graph_id"}),
		NodesExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_executed_total",
			Help:      "Count of nodes successfully invoked.",
		}, []string{"graph_id"}),
		NodesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_failed_total",
			Help:      "Count of nodes whose Invoker call returned an error.",
		}, []string{"graph_id", "fatal"}),
		RunsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_completed_total",
			Help:      "Count of Execute.Run calls that reached completion.",
		}),
		RunsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_cancelled_total",
			Help:      "Count of Execute.Run calls stopped by context cancellation.",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_cache_hits_total",
			Help:      "Count of RuntimeGraph snapshot loads served from Redis.",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_cache_misses_total",
			Help:      "Count of RuntimeGraph snapshot loads that fell through to Postgres.",
		}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by method, path, and status.",
		}, []string{"method", "path", "status"}),
		HTTPLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and path.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// RecordPlan records the duration of one Preprocess call for graphID.
func (m *Metrics) RecordPlan(graphID string, seconds float64) {
	m.PlanDuration.WithLabelValues(graphID).Observe(seconds)
}

// RecordNodeExecuted increments the executed-nodes counter for graphID.
func (m *Metrics) RecordNodeExecuted(graphID string) {
	m.NodesExecuted.WithLabelValues(graphID).Inc()
}

// RecordNodeFailed increments the failed-nodes counter for graphID,
// labeled by whether the failure was fatal.
func (m *Metrics) RecordNodeFailed(graphID string, fatal bool) {
	label := "false"
	if fatal {
		label = "true"
	}
	m.NodesFailed.WithLabelValues(graphID, label).Inc()
}

// RecordCacheResult increments the hit or miss counter.
func (m *Metrics) RecordCacheResult(hit bool) {
	if hit {
		m.CacheHits.Inc()
		return
	}
	m.CacheMisses.Inc()
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, seconds float64) {
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPLatency.WithLabelValues(method, path).Observe(seconds)
}
