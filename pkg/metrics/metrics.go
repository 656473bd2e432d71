package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds the Prometheus instrumentation for a running Pool:
// batch throughput, per-stage timing, and tree shape (SPEC_FULL.md
// §B). Adapted from the teacher's pkg/api/metrics.go, replacing its
// HTTP/DB/auth metric families with ones that describe batch
// submission instead.
type Metrics struct {
	batchesTotal         *prometheus.CounterVec
	batchQueriesTotal    prometheus.Counter
	batchDuration        *prometheus.HistogramVec
	treeDepth            prometheus.Gauge
	splitsTotal          prometheus.Counter
	redistributionSteals prometheus.Counter
}

// NewMetrics creates and registers the palmbench metric family.
func NewMetrics() *Metrics {
	return &Metrics{
		batchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "palmbench_batches_total",
				Help: "Total number of batches submitted to the pool",
			},
			[]string{"status"},
		),
		batchQueriesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "palmbench_batch_queries_total",
				Help: "Total number of queries processed across all batches",
			},
		),
		batchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "palmbench_batch_duration_seconds",
				Help:    "Batch processing duration in seconds, by stage",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		treeDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "palmbench_tree_depth",
				Help: "Current depth of the tree (leaf level = 1)",
			},
		),
		splitsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "palmbench_splits_total",
				Help: "Total number of node splits produced by leaf-apply and internal-apply (root-handler splits are not counted)",
			},
		),
		redistributionSteals: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "palmbench_redistribution_steals_total",
				Help: "Total number of items redistributeWork has moved between neighboring workers' queues",
			},
		),
	}
}

// RecordBatch records one SubmitBatch call's outcome and query count.
func (m *Metrics) RecordBatch(success bool, numQueries int) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.batchesTotal.WithLabelValues(status).Inc()
	m.batchQueriesTotal.Add(float64(numQueries))
}

// RecordStageDuration records the wall-clock time spent in one of the
// driver's two timed phases ("sequential" sort/partition, "parallel"
// worker stages — spec.md §6's driver contract).
func (m *Metrics) RecordStageDuration(stage string, d time.Duration) {
	m.batchDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// UpdateTreeDepth reports the tree's depth after a batch.
func (m *Metrics) UpdateTreeDepth(depth int) {
	m.treeDepth.Set(float64(depth))
}

// RecordSplits adds n node splits observed across any level during a batch.
func (m *Metrics) RecordSplits(n int) {
	if n > 0 {
		m.splitsTotal.Add(float64(n))
	}
}

// RecordRedistributionSteals adds n items moved between neighboring
// workers' queues by redistributeWork during a batch.
func (m *Metrics) RecordRedistributionSteals(n int) {
	if n > 0 {
		m.redistributionSteals.Add(float64(n))
	}
}
