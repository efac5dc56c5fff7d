// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - SOURCE_DIR: Directory that preview paths are resolved against (default: /data)
//   - CACHE_DIR: Cache directory; artifacts go to CACHE_DIR/previews (default: /cache)
//   - DATABASE_DIR: Directory of the artifact index database (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - PREVIEW_WIDTH, PREVIEW_HEIGHT: Default JPEG bounding box (default: 256x256)
//   - SOFFICE_PATH: LibreOffice binary used for office documents (default: soffice)
//   - OFFICE_TIMEOUT: Per-document conversion timeout as Go duration (default: 2m)
//   - VIPS_ENABLED: Use libvips for image decoding when available (default: true)
//   - PREVIEW_WORKERS: Fixed worker count for cache warming
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: Log static file requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Directory Setup
//
// The preview cache directory is required and must be writable. The
// database directory is optional: when it cannot be written the artifact
// index is disabled. The source directory is checked but not created.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            config.Port,
//	    MetricsPort:     config.MetricsPort,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
package startup
