package infra

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Process-wide collectors, exposed on GET /metrics.
var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "obraspm",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route template and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "obraspm",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route template.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// result: ok | retry | dlq
	Jobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "obraspm",
		Name:      "jobs_total",
		Help:      "Background jobs processed by type and outcome.",
	}, []string{"type", "result"})

	Transiciones = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "obraspm",
		Name:      "requisicion_transiciones_total",
		Help:      "Committed requisition estado transitions.",
	}, []string{"desde", "hacia"})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, Jobs, Transiciones)
}
