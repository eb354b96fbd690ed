package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dataco_dashboard"

// Metrics groups the dashboard's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	warehouseQueries  *prometheus.CounterVec
	warehouseDuration *prometheus.HistogramVec
	warehouseRows     *prometheus.GaugeVec
	cacheLookups      *prometheus.CounterVec
	reportDuration    prometheus.Histogram
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		warehouseQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warehouse_queries_total",
			Help:      "Warehouse statements executed, by query and outcome.",
		}, []string{"query", "outcome"}),
		warehouseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "warehouse_query_duration_seconds",
			Help:      "Time spent executing and materializing warehouse statements.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"query"}),
		warehouseRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "warehouse_rows_loaded",
			Help:      "Rows materialized by the last successful load of each query.",
		}, []string{"query"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Query cache lookups, by query and result.",
		}, []string{"query", "result"}),
		reportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_compute_duration_seconds",
			Help:      "Time to filter and aggregate one dashboard report.",
			Buckets:   prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.warehouseQueries,
		m.warehouseDuration,
		m.warehouseRows,
		m.cacheLookups,
		m.reportDuration,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveQuery(query string, d time.Duration, rows int, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.warehouseQueries.WithLabelValues(query, outcome).Inc()
	m.warehouseDuration.WithLabelValues(query).Observe(d.Seconds())
	if err == nil {
		m.warehouseRows.WithLabelValues(query).Set(float64(rows))
	}
}

func (m *Metrics) ObserveCache(query string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(query, result).Inc()
}

func (m *Metrics) ObserveReport(d time.Duration) {
	if m == nil {
		return
	}
	m.reportDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}
