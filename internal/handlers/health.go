package handlers

import (
	"net/http"
	"runtime"
	"time"

	"preview-generator/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	Builders  int    `json:"builders"`
	MimeTypes int    `json:"mimeTypes"`
	CacheDir  string `json:"cacheDir"`
	CacheErr  string `json:"cacheError,omitempty"`
	Warming   bool   `json:"warming"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	CacheBytes int64 `json:"cacheBytes"`
	CacheFiles int   `json:"cacheFiles"`
}

// ready reports whether at least one builder is registered.
func (h *Handlers) ready() bool {
	return len(h.manager.Builders()) > 0
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Ready:        h.ready(),
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Builders:     len(h.manager.Builders()),
		MimeTypes:    len(h.manager.SupportedMimeTypes()),
		CacheDir:     h.manager.CacheDir(),
		Warming:      h.IsWarming(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if bytes, files, err := h.manager.CacheSize(); err != nil {
		response.Status = statusDegraded
		response.CacheErr = err.Error()
	} else {
		response.CacheBytes = bytes
		response.CacheFiles = files
	}
	if !response.Ready {
		response.Status = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	if !response.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 once a builder can serve previews.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.ready() {
		w.WriteHeader(http.StatusOK)
		writeJSON(w, map[string]string{
			"status": "ready",
		})
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
		})
	}
}
