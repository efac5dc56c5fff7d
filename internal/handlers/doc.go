// Package handlers provides the HTTP API of the preview server.
//
// It includes handlers for:
//   - Preview generation and delivery, one route per preview kind
//   - Page counts and the supported MIME type list
//   - Cache statistics and cache eviction per source file
//   - Health, liveness, readiness and version probes
package handlers
