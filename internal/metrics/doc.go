// Package metrics provides Prometheus instrumentation for the preview
// generator. All metrics are prefixed with "preview_generator_".
//
// # Metric Categories
//
// HTTP: request counts, durations and in-flight requests, recorded by the
// middleware package.
//
// Generation: PreviewGenerationsTotal and PreviewGenerationDuration are
// labelled by builder and preview kind; cache hits and misses by kind.
// PreviewCacheSize, PreviewCacheCount and PreviewIndexedArtifacts are
// refreshed by the Collector.
//
// Converters: calls into image decoders, MuPDF, pdfcpu and LibreOffice.
//
// Index: SQLite artifact index query counts and latency.
//
// Filesystem: stale NFS handle retries, reported through the
// filesystem.Observer implementation in observer.go.
package metrics
