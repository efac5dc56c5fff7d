// Package middleware provides HTTP middleware for the preview server.
//
// It includes:
//   - Access logging in W3C Extended Log Format, including the preview
//     cache status header
//   - Prometheus request metrics labelled by mux route template
//   - gzip compression for text, HTML and JSON responses
//   - CORS for browser clients on configured origins
package middleware
