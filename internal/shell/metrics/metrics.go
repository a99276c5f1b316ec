// Package metrics exposes Prometheus metrics for planning runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "baasflow"

// Collector provides run metrics collection.
type Collector struct {
	registry *prometheus.Registry

	runsTotal         *prometheus.CounterVec
	planDuration      prometheus.Histogram
	planExpansions    prometheus.Histogram
	pathLength        prometheus.Histogram
	deployTotal       *prometheus.CounterVec
	deployDuration    *prometheus.HistogramVec
	resetTotal        *prometheus.CounterVec
	functionsDeclared prometheus.Gauge
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "total",
			Help:      "Planning runs by final status",
		},
		[]string{"status"},
	)

	c.planDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "duration_seconds",
			Help:      "Time taken to search for a service path",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100us to ~26s
		},
	)

	c.planExpansions = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "expansions",
			Help:      "States expanded per search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	c.pathLength = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "path_length",
			Help:      "Functions in each found path",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		},
	)

	c.deployTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "deploy",
			Name:      "total",
			Help:      "Deployments by provider and result",
		},
		[]string{"provider", "result"},
	)

	c.deployDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "deploy",
			Name:      "duration_seconds",
			Help:      "Time taken to deploy a path",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		},
		[]string{"provider"},
	)

	c.resetTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "deploy",
			Name:      "resets_total",
			Help:      "Provider resets by provider and result",
		},
		[]string{"provider", "result"},
	)

	c.functionsDeclared = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "functions",
			Help:      "Service functions in the loaded catalog",
		},
	)

	c.registry.MustRegister(
		c.runsTotal,
		c.planDuration,
		c.planExpansions,
		c.pathLength,
		c.deployTotal,
		c.deployDuration,
		c.resetTotal,
		c.functionsDeclared,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// RecordRun counts a finished run.
func (c *Collector) RecordRun(status string) {
	c.runsTotal.WithLabelValues(status).Inc()
}

// RecordPlan records one path search.
func (c *Collector) RecordPlan(duration time.Duration, expanded int, found bool, pathLen int) {
	c.planDuration.Observe(duration.Seconds())
	c.planExpansions.Observe(float64(expanded))
	if found {
		c.pathLength.Observe(float64(pathLen))
	}
}

// RecordDeploy records one deployment.
func (c *Collector) RecordDeploy(provider string, duration time.Duration, err error) {
	c.deployTotal.WithLabelValues(provider, result(err)).Inc()
	c.deployDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordReset records one provider reset.
func (c *Collector) RecordReset(provider string, err error) {
	c.resetTotal.WithLabelValues(provider, result(err)).Inc()
}

// SetCatalogSize records the number of catalog functions.
func (c *Collector) SetCatalogSize(n int) {
	c.functionsDeclared.Set(float64(n))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
