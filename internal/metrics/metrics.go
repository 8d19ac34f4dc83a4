// Package metrics exposes Prometheus collectors for runs, probes, cache and HTTP.
// All methods are safe on a nil *Metrics so components can run without metrics.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/aivis/internal/model"
)

// Run sources
const (
	SourceRun      = "run"
	SourceSeed     = "seed"
	SourceSchedule = "schedule"
)

type Metrics struct {
	Registry *prometheus.Registry

	checksInserted *prometheus.CounterVec
	checksPresent  *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	runErrors      *prometheus.CounterVec
	probeDuration  *prometheus.HistogramVec
	cacheRequests  *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
}

// New registers every collector on a fresh registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		checksInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aivis",
			Name:      "checks_inserted_total",
			Help:      "Checks written to the store.",
		}, []string{"source", "engine"}),
		checksPresent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aivis",
			Name:      "checks_present_total",
			Help:      "Inserted checks where the brand was present in the answer.",
		}, []string{"source", "engine"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aivis",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a batch run, from keyword resolution to insert.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		runErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aivis",
			Name:      "run_errors_total",
			Help:      "Failed batch runs by error kind.",
		}, []string{"source", "kind"}),
		probeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aivis",
			Name:      "probe_duration_seconds",
			Help:      "Latency of a single answer-engine probe.",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30},
		}, []string{"engine"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aivis",
			Name:      "report_cache_requests_total",
			Help:      "Report cache lookups by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aivis",
			Name:      "http_requests_total",
			Help:      "HTTP API requests by route and status code.",
		}, []string{"method", "route", "code"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.checksInserted,
		m.checksPresent,
		m.runDuration,
		m.runErrors,
		m.probeDuration,
		m.cacheRequests,
		m.httpRequests,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveRun records one batch run: inserted checks on success, an error kind otherwise
func (m *Metrics) ObserveRun(source string, checks []model.Check, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(source).Observe(elapsed.Seconds())

	if err != nil {
		m.runErrors.WithLabelValues(source, errorKind(err)).Inc()
		return
	}
	for _, c := range checks {
		engine := c.Engine.String()
		m.checksInserted.WithLabelValues(source, engine).Inc()
		if c.Presence {
			m.checksPresent.WithLabelValues(source, engine).Inc()
		}
	}
}

// ObserveProbe records the latency of one probe
func (m *Metrics) ObserveProbe(engine model.Engine, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.probeDuration.WithLabelValues(engine.String()).Observe(elapsed.Seconds())
}

// ObserveCache records a report cache hit or miss
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

// ObserveHTTP records one served request; route is the matched path template
func (m *Metrics) ObserveHTTP(method, route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

func errorKind(err error) string {
	var inputErr *model.InputError
	var storeErr *model.StoreError
	switch {
	case errors.As(err, &inputErr):
		return "input"
	case errors.As(err, &storeErr):
		return "store"
	default:
		return "probe"
	}
}
