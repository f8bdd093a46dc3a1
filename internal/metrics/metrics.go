// Package metrics exposes Prometheus collectors for the store, the snapshot
// rebuild and the HTTP API. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fintrack/internal/core"
)

const namespace = "fintrack"

type Metrics struct {
	registry         *prometheus.Registry
	storeOperations  *prometheus.CounterVec
	snapshotDuration prometheus.Histogram
	httpRequests     *prometheus.CounterVec
}

// New creates the collectors on a private registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		storeOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Store operations by operation, kind and result reason.",
		}, []string{"operation", "kind", "result"}),
		snapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_rebuild_seconds",
			Help:      "Time spent re-reading all operations and recomputing aggregates.",
			Buckets:   prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.storeOperations,
		m.snapshotDuration,
		m.httpRequests,
	)
	return m
}

// ObserveStore counts one store operation. The result label is "ok" or the
// error's core.Reason.
func (m *Metrics) ObserveStore(operation string, kind core.Kind, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = string(core.ReasonOf(err))
	}
	m.storeOperations.WithLabelValues(operation, kind.String(), result).Inc()
}

func (m *Metrics) ObserveSnapshot(d time.Duration) {
	if m == nil {
		return
	}
	m.snapshotDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTP(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Registry returns the registry backing the collectors.
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
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
