// Package metrics records run and test case statistics as prometheus
// metrics. A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"scenetest/pkg/scenetest/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "scenetest"
)

type Metrics struct {
	registry *prometheus.Registry

	casesTotal    *prometheus.CounterVec
	caseDuration  *prometheus.HistogramVec
	timeoutsTotal *prometheus.CounterVec
	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		casesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "test_cases_total",
			Help:      "Count of completed test cases by outcome",
		}, []string{
			"outcome",
		}),
		caseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "test_case_duration_seconds",
			Help:      "Duration of test cases by outcome",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{
			"outcome",
		}),
		timeoutsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "timeouts_total",
			Help:      "Count of test cases cancelled because a deadline elapsed",
		}, []string{
			"deadline",
		}),
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "runs_total",
			Help:      "Count of orchestration runs by result",
		}, []string{
			"result",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of runner invocations",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordCase(res core.TestResult) {
	if m == nil {
		return
	}

	outcome := res.Outcome.String()
	m.casesTotal.WithLabelValues(outcome).Inc()
	m.caseDuration.WithLabelValues(outcome).Observe(res.Duration.Seconds())
}

func (m *Metrics) RecordTimeout(local bool) {
	if m == nil {
		return
	}

	deadline := "global"
	if local {
		deadline = "local"
	}
	m.timeoutsTotal.WithLabelValues(deadline).Inc()
}

// RecordBatch records the duration of a RunAll/Run invocation.
func (m *Metrics) RecordBatch(d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())
}

// RecordRun counts a finished orchestration run. result is one of
// "ok", "failed", "skipped" or "error".
func (m *Metrics) RecordRun(result string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(result).Inc()
}

// WriteTextfile writes the current metrics in the node exporter textfile
// format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}

	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to '%s': %w", path, err)
	}
	return nil
}
