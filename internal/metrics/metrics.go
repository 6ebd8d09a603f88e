// ============================================================================
// Periodic Engine Metrics - Prometheus Monitoring
// ============================================================================
//
// Package: internal/metrics
// File: metrics.go
// Purpose: collect and expose per-callable and per-executor metrics for
//          Prometheus scraping
//
// Metric Categories:
//
//   1. Run Counters (Vec, labeled by callable name):
//      - periodic_runs_total
//      - periodic_successes_total
//      - periodic_failures_total
//
//   2. Performance Metrics (Histogram, labeled by callable name):
//      - periodic_elapsed_seconds: time spent inside the callable
//      - periodic_elapsed_waiting_seconds: time spent queued before start
//
//   3. Executor Gauges (labeled by executor kind):
//      - periodic_executor_executed
//      - periodic_executor_cancelled
//      - periodic_executor_failures
//
// HTTP Endpoint:
//   Exposed via /metrics, scraped by Prometheus, on the port passed to
//   StartServer (the `run` config's metrics.port; no default is applied).
//
// ============================================================================

package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ChuLiYu/periodic-engine/pkg/types"
)

// Collector collects Prometheus metrics for the periodic engine.
type Collector struct {
	reg *prometheus.Registry

	runs      *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec

	elapsed        *prometheus.HistogramVec
	elapsedWaiting *prometheus.HistogramVec

	executorExecuted  *prometheus.GaugeVec
	executorCancelled *prometheus.GaugeVec
	executorFailures  *prometheus.GaugeVec
}

// NewCollector creates a collector registered against its own
// registry, rather than the global default, so that a process can run
// more than one worker without a duplicate-registration panic. A nil
// reg creates a fresh private registry.
func NewCollector(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	c := &Collector{reg: reg,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "periodic_runs_total",
			Help: "Total number of times a callable has run, successful or not.",
		}, []string{"callable"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "periodic_successes_total",
			Help: "Total number of successful callable runs.",
		}, []string{"callable"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "periodic_failures_total",
			Help: "Total number of failed callable runs.",
		}, []string{"callable"}),
		elapsed: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "periodic_elapsed_seconds",
			Help:    "Time spent executing a callable.",
			Buckets: prometheus.DefBuckets,
		}, []string{"callable"}),
		elapsedWaiting: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "periodic_elapsed_waiting_seconds",
			Help:    "Time a callable spent queued before it started running.",
			Buckets: prometheus.DefBuckets,
		}, []string{"callable"}),
		executorExecuted: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "periodic_executor_executed",
			Help: "Cumulative submissions an executor has run to completion.",
		}, []string{"executor"}),
		executorCancelled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "periodic_executor_cancelled",
			Help: "Cumulative submissions an executor cancelled before running.",
		}, []string{"executor"}),
		executorFailures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "periodic_executor_failures",
			Help: "Cumulative submissions an executor ran that failed.",
		}, []string{"executor"}),
	}

	reg.MustRegister(
		c.runs, c.successes, c.failures,
		c.elapsed, c.elapsedWaiting,
		c.executorExecuted, c.executorCancelled, c.executorFailures,
	)
	return c
}

// RecordRun folds one callable completion into the run counters and
// elapsed histograms.
func (c *Collector) RecordRun(callable string, failed bool, elapsedSeconds, waitingSeconds float64) {
	c.runs.WithLabelValues(callable).Inc()
	if failed {
		c.failures.WithLabelValues(callable).Inc()
	} else {
		c.successes.WithLabelValues(callable).Inc()
	}
	c.elapsed.WithLabelValues(callable).Observe(elapsedSeconds)
	c.elapsedWaiting.WithLabelValues(callable).Observe(waitingSeconds)
}

// SetExecutorStatistics mirrors an executor's cumulative statistics
// snapshot into gauges labeled by the executor's kind name.
func (c *Collector) SetExecutorStatistics(kind string, stats types.ExecutorStatistics) {
	c.executorExecuted.WithLabelValues(kind).Set(float64(stats.Executed))
	c.executorCancelled.WithLabelValues(kind).Set(float64(stats.Cancelled))
	c.executorFailures.WithLabelValues(kind).Set(float64(stats.Failures))
}

// Handler returns the HTTP handler that serves this collector's
// metrics in Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// StartServer starts an HTTP server exposing the collector's /metrics
// on the given port. Blocks until the server errors or is closed.
func (c *Collector) StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, mux)
}
