package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_generator_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "preview_generator_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "preview_generator_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Preview generation metrics
var (
	PreviewGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_generator_generations_total",
			Help: "Total number of preview generations",
		},
		[]string{"builder", "kind", "status"},
	)

	PreviewGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "preview_generator_generation_duration_seconds",
			Help:    "Preview generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"builder", "kind"},
	)

	PreviewGenerationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "preview_generator_generations_in_flight",
			Help: "Number of preview generations currently running",
		},
	)

	PreviewCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_generator_cache_hits_total",
			Help: "Total number of preview cache hits",
		},
		[]string{"kind"},
	)

	PreviewCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_generator_cache_misses_total",
			Help: "Total number of preview cache misses",
		},
		[]string{"kind"},
	)

	PreviewCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "preview_generator_cache_size_bytes",
			Help: "Total size of the preview cache in bytes",
		},
	)

	PreviewCacheCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "preview_generator_cache_count",
			Help: "Number of artifacts in the preview cache",
		},
	)

	PreviewIndexedArtifacts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "preview_generator_indexed_artifacts",
			Help: "Number of artifacts recorded in the index by kind",
		},
		[]string{"kind"},
	)

	BuildersRegistered = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "preview_generator_builders_registered",
			Help: "Whether a builder passed its dependency check (1) or was skipped (0)",
		},
		[]string{"builder"},
	)
)

// External converter metrics
var (
	ConverterCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_generator_converter_calls_total",
			Help: "Total number of calls into external converters",
		},
		[]string{"converter", "status"},
	)

	ConverterDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "preview_generator_converter_duration_seconds",
			Help:    "External converter call duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"converter"},
	)
)

// Index database metrics
var (
	IndexQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_generator_index_queries_total",
			Help: "Total number of artifact index queries",
		},
		[]string{"operation", "status"},
	)

	IndexQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "preview_generator_index_query_duration_seconds",
			Help:    "Artifact index query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_generator_filesystem_retry_attempts_total",
			Help: "Retries issued after stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_generator_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_generator_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_generator_filesystem_stale_errors_total",
			Help: "Stale file handle errors seen",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "preview_generator_filesystem_retry_duration_seconds",
			Help:    "Duration of filesystem operations including retries",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "preview_generator_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "preview_generator_memory_paused",
			Help: "1 while batch preview generation is paused for memory pressure",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "preview_generator_memory_gc_pauses_total",
			Help: "Number of times memory pressure paused batch generation",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "preview_generator_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
