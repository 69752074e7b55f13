package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusHooks implements every hook interface with Prometheus metrics.
type PrometheusHooks struct {
	solves        *prometheus.CounterVec
	solveDuration *prometheus.HistogramVec
	placed        prometheus.Histogram

	exactSolves    *prometheus.CounterVec
	exactDuration  prometheus.Histogram
	exactObjective prometheus.Gauge

	cacheEvents *prometheus.CounterVec
	cacheBytes  prometheus.Counter

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewPrometheusHooks creates the collectors and registers them with reg.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	h := &PrometheusHooks{
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trsolver",
			Name:      "solves_total",
			Help:      "Heuristic solves by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		solveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trsolver",
			Name:      "solve_duration_seconds",
			Help:      "Heuristic solve latency.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"strategy"}),
		placed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trsolver",
			Name:      "solve_placed_cells",
			Help:      "Cells labeled by a finished solve.",
			Buckets:   prometheus.LinearBuckets(1, 10, 10),
		}),
		exactSolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trsolver",
			Name:      "exact_solves_total",
			Help:      "Exact solves by final status.",
		}, []string{"status"}),
		exactDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trsolver",
			Name:      "exact_duration_seconds",
			Help:      "Exact solve latency.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		exactObjective: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trsolver",
			Name:      "exact_last_objective",
			Help:      "Objective of the most recent exact solution.",
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trsolver",
			Name:      "cache_events_total",
			Help:      "Cache lookups and writes by key type.",
		}, []string{"key_type", "event"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trsolver",
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trsolver",
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"method", "route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trsolver",
			Name:      "http_request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		h.solves, h.solveDuration, h.placed,
		h.exactSolves, h.exactDuration, h.exactObjective,
		h.cacheEvents, h.cacheBytes,
		h.requests, h.requestDuration,
	)
	return h
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (h *PrometheusHooks) OnSolveStart(context.Context, string, int) {}

func (h *PrometheusHooks) OnSolveComplete(_ context.Context, strategy string, placed int, d time.Duration, err error) {
	h.solves.WithLabelValues(strategy, outcome(err)).Inc()
	h.solveDuration.WithLabelValues(strategy).Observe(d.Seconds())
	if err == nil {
		h.placed.Observe(float64(placed))
	}
}

func (h *PrometheusHooks) OnExactStart(context.Context, int, int) {}

func (h *PrometheusHooks) OnExactComplete(_ context.Context, status string, objective float64, d time.Duration, err error) {
	if err != nil {
		status = "error"
	}
	h.exactSolves.WithLabelValues(status).Inc()
	h.exactDuration.Observe(d.Seconds())
	if status == "optimal" || status == "feasible" {
		h.exactObjective.Set(objective)
	}
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheEvents.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.Add(float64(size))
}

func (h *PrometheusHooks) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	h.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	h.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ SolverHooks = (*PrometheusHooks)(nil)
	_ CacheHooks  = (*PrometheusHooks)(nil)
	_ HTTPHooks   = (*PrometheusHooks)(nil)
)
