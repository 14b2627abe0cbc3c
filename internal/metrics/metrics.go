package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Catalog fetch metrics. path is "primary" or "mirror"; outcome is "success",
// "error" or "timeout".
var (
	CatalogFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_fetch_total",
			Help: "Total number of catalog fetch attempts by path and outcome.",
		},
		[]string{"path", "outcome"},
	)

	CatalogFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_fetch_duration_seconds",
			Help:    "Duration of catalog fetch attempts by path.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"path"},
	)
)

// Tag editor metrics. result is "ok", "rejected" or "persist_error".
var (
	TagMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tag_mutations_total",
			Help: "Total number of tag editor operations by operation and result.",
		},
		[]string{"op", "result"},
	)
)

// Image proxy metrics. result is "hit", "miss", "rejected" or "error".
var (
	ProxyRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxy_requests_total",
			Help: "Total number of proxied requests by result.",
		},
		[]string{"result"},
	)
)

// HTTP API metrics. route is the chi route pattern, never the raw path.
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(
		CatalogFetchTotal,
		CatalogFetchDuration,
		TagMutationsTotal,
		ProxyRequestsTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}
