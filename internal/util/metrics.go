package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Total number of commerce API requests",
	}, []string{"resource", "status"})

	UpstreamRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_latency_seconds",
		Help:    "Latency of commerce API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource"})

	UpstreamUnmappedStatusTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_unmapped_status_total",
		Help: "Upstream status values that fell through to a catch-all display status",
	}, []string{"field"})

	FetchSectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_sections_total",
		Help: "Outcomes of view sections fetched from the commerce API",
	}, []string{"view", "section", "status"})

	ViewBuildLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "view_build_latency_seconds",
		Help:    "Time spent building a dashboard view",
		Buckets: prometheus.DefBuckets,
	}, []string{"view"})

	ExportJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "export_jobs_total",
		Help: "Total number of CSV export jobs by outcome",
	}, []string{"view", "status"})

	ExportSizeBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "export_size_bytes",
		Help:    "Size of rendered CSV exports",
		Buckets: prometheus.ExponentialBuckets(256, 4, 8),
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
