// Package metrics records per-run Prometheus metrics for the collector and
// synthesizer and exports them for the node_exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sanctions_radar"

// Query outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Recorder holds the metrics of a single run. A nil Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	queries    *prometheus.CounterVec
	fetched    prometheus.Counter
	kept       prometheus.Gauge
	duplicates prometheus.Gauge
	passes     *prometheus.CounterVec
	duration   *prometheus.GaugeVec
	lastRun    *prometheus.GaugeVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "queries_total",
			Help:      "Signal source queries issued, by outcome.",
		}, []string{"outcome"}),
		fetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "signals_fetched_total",
			Help:      "Signals returned by the source before deduplication.",
		}),
		kept: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "signals_kept",
			Help:      "Signals in the persisted event set.",
		}),
		duplicates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "duplicates_dropped",
			Help:      "Signals dropped by deduplication in the last run.",
		}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "synthesizer",
			Name:      "passes_total",
			Help:      "Text-generation passes, by pass and content origin.",
		}, []string{"pass", "origin"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the last run, by stage.",
		}, []string{"stage"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the stage last completed.",
		}, []string{"stage"}),
	}

	r.registry.MustRegister(r.queries, r.fetched, r.kept, r.duplicates, r.passes, r.duration, r.lastRun)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// QueryDone counts one query by outcome.
func (r *Recorder) QueryDone(outcome string) {
	if r == nil {
		return
	}
	r.queries.WithLabelValues(outcome).Inc()
}

// SignalsFetched adds to the fetched counter.
func (r *Recorder) SignalsFetched(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.fetched.Add(float64(n))
}

// EventSetBuilt records the size of the deduplicated set.
func (r *Recorder) EventSetBuilt(kept, duplicates int) {
	if r == nil {
		return
	}
	r.kept.Set(float64(kept))
	r.duplicates.Set(float64(duplicates))
}

// PassDone counts one synthesis pass.
func (r *Recorder) PassDone(pass, origin string) {
	if r == nil {
		return
	}
	r.passes.WithLabelValues(pass, origin).Inc()
}

// StageDone records a stage's duration and completion time.
func (r *Recorder) StageDone(stage string, d time.Duration, at time.Time) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(stage).Set(d.Seconds())
	r.lastRun.WithLabelValues(stage).Set(float64(at.Unix()))
}

// WriteTextfile writes all metrics in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
