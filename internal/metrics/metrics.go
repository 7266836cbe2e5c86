// Package metrics exposes Prometheus collectors for optimization runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes used for the status label.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Collector records per-strategy run metrics. A nil *Collector is valid
// and records nothing.
type Collector struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	best        *prometheus.GaugeVec
	evaluations *prometheus.CounterVec
	active      prometheus.Gauge
}

// New creates the collectors under namespace and registers them with reg.
// A nil reg leaves them unregistered.
func New(namespace string, reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Optimization runs by strategy and final status",
		}, []string{"strategy", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of finished optimization runs",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"strategy"}),
		best: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_fitness",
			Help:      "Dispersion of the most recent completed run",
		}, []string{"strategy"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fitness_evaluations_total",
			Help:      "Objective evaluations performed",
		}, []string{"strategy"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Runs currently in progress",
		}),
	}

	if reg != nil {
		for _, col := range []prometheus.Collector{c.runs, c.duration, c.best, c.evaluations, c.active} {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// RunStarted marks a run as in progress.
func (c *Collector) RunStarted(strategy string) {
	if c == nil {
		return
	}
	c.active.Inc()
}

// RunFinished records the outcome of a run started with RunStarted.
// Fitness is only recorded for completed runs.
func (c *Collector) RunFinished(strategy, status string, elapsed time.Duration, evaluations int, fitness float64) {
	if c == nil {
		return
	}
	c.active.Dec()
	c.runs.WithLabelValues(strategy, status).Inc()
	c.duration.WithLabelValues(strategy).Observe(elapsed.Seconds())
	if evaluations > 0 {
		c.evaluations.WithLabelValues(strategy).Add(float64(evaluations))
	}
	if status == StatusCompleted {
		c.best.WithLabelValues(strategy).Set(fitness)
	}
}
