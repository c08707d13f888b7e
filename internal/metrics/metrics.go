// Package metrics holds the Prometheus instruments exported by labnote.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "labnote"

// Metrics bundles the collectors registered on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	storeDuration *prometheus.HistogramVec
	storeFailures *prometheus.CounterVec
	processed     *prometheus.CounterVec
	measurements  *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
}

// New builds a Metrics instance with process and Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
		collectors.NewGoCollector(),
	)
	m := &Metrics{
		registry: reg,
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Duration of record store operations.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"op"}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_failures_total",
			Help:      "Failed record store operations.",
		}, []string{"op"}),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_processed_total",
			Help:      "Notes parsed, labelled by whether the record was stored.",
		}, []string{"stored"}),
		measurements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "measurements_extracted_total",
			Help:      "Measurements extracted from notes, by type.",
		}, []string{"type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
	}
	reg.MustRegister(m.storeDuration, m.storeFailures, m.processed, m.measurements, m.httpRequests)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveStore records one store operation. It is safe on a nil receiver.
func (m *Metrics) ObserveStore(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
	if err != nil {
		m.storeFailures.WithLabelValues(op).Inc()
	}
}

// RecordProcessed counts a parsed note and its measurements.
func (m *Metrics) RecordProcessed(stored bool, measurementTypes []string) {
	if m == nil {
		return
	}
	label := "false"
	if stored {
		label = "true"
	}
	m.processed.WithLabelValues(label).Inc()
	for _, kind := range measurementTypes {
		m.measurements.WithLabelValues(kind).Inc()
	}
}

// HTTPRequest counts one served request.
func (m *Metrics) HTTPRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
