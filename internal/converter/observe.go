package converter

import (
	"time"

	"preview-generator/internal/metrics"
)

func observe(converter string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ConverterCallsTotal.WithLabelValues(converter, status).Inc()
	metrics.ConverterDuration.WithLabelValues(converter).Observe(time.Since(start).Seconds())
}
