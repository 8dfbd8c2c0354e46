// Package metrics records run-level counters for Prometheus. A nil
// *Recorder is a no-op so components can be built without metrics in
// tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcome labels.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Recorder holds the Prometheus collectors for the digest pipeline.
type Recorder struct {
	runsTotal       *prometheus.CounterVec
	insightsTotal   *prometheus.CounterVec
	deliveriesTotal *prometheus.CounterVec
	runDuration     prometheus.Histogram
	holdingsCount   prometheus.Gauge
	triggersDropped prometheus.Counter
}

// New registers the collectors on the default registry. Call it once
// per process.
func New() *Recorder {
	return &Recorder{
		runsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digestbot_runs_total",
				Help: "Total number of pipeline runs by outcome",
			},
			[]string{"status"},
		),
		insightsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digestbot_insights_total",
				Help: "Total number of insight generations by provider and outcome",
			},
			[]string{"provider", "status"},
		),
		deliveriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digestbot_deliveries_total",
				Help: "Total number of digest deliveries by channel and outcome",
			},
			[]string{"channel", "status"},
		),
		runDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "digestbot_run_duration_seconds",
				Help:    "Duration of full pipeline runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		holdingsCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "digestbot_holdings_count",
				Help: "Number of holdings seen in the most recent run",
			},
		),
		triggersDropped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "digestbot_triggers_dropped_total",
				Help: "Scheduler triggers dropped because a run was already in progress",
			},
		),
	}
}

// RecordRun records one pipeline run outcome and its duration.
func (r *Recorder) RecordRun(status string, seconds float64) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.Observe(seconds)
}

// RecordInsight records one insight generation attempt.
func (r *Recorder) RecordInsight(provider, status string) {
	if r == nil {
		return
	}
	r.insightsTotal.WithLabelValues(provider, status).Inc()
}

// RecordDelivery records one delivery attempt on a channel.
func (r *Recorder) RecordDelivery(channel, status string) {
	if r == nil {
		return
	}
	r.deliveriesTotal.WithLabelValues(channel, status).Inc()
}

// RecordHoldings records the holdings count of the current run.
func (r *Recorder) RecordHoldings(n int) {
	if r == nil {
		return
	}
	r.holdingsCount.Set(float64(n))
}

// RecordDroppedTrigger records a scheduler trigger ignored mid-run.
func (r *Recorder) RecordDroppedTrigger() {
	if r == nil {
		return
	}
	r.triggersDropped.Inc()
}
