package metrics

// Kinds lists the preview kinds used as metric labels. It mirrors
// builder.AllKinds without importing the builder package.
var Kinds = []string{"jpeg", "pdf", "html", "json", "text"}

// InitializeMetrics pre-populates label combinations so every series is
// exported from the first scrape.
func InitializeMetrics(builders []string) {
	for _, op := range []string{"stat", "open"} {
		for _, vol := range []string{"source", "cache", "unknown"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, kind := range Kinds {
		PreviewCacheHits.WithLabelValues(kind)
		PreviewCacheMisses.WithLabelValues(kind)
		PreviewIndexedArtifacts.WithLabelValues(kind)
		for _, b := range builders {
			PreviewGenerationsTotal.WithLabelValues(b, kind, "success")
			PreviewGenerationsTotal.WithLabelValues(b, kind, "error")
			PreviewGenerationDuration.WithLabelValues(b, kind)
		}
	}

	for _, conv := range []string{"image_metadata", "image_jpeg", "pdf_render", "pdf_trim", "pdf_text", "office"} {
		ConverterCallsTotal.WithLabelValues(conv, "success")
		ConverterCallsTotal.WithLabelValues(conv, "error")
		ConverterDuration.WithLabelValues(conv)
	}

	for _, op := range []string{"record", "lookup", "list_by_source", "delete_by_source", "count_by_kind"} {
		IndexQueryTotal.WithLabelValues(op, "success")
		IndexQueryTotal.WithLabelValues(op, "error")
		IndexQueryDuration.WithLabelValues(op)
	}
}
