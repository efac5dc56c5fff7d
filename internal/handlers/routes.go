package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes adds the probe and API routes to r.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/preview/{kind}/{path:.*}", h.GetPreview).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/preview/{path:.*}", h.DeletePreviews).Methods(http.MethodDelete)
	api.HandleFunc("/pages/{path:.*}", h.GetPages).Methods(http.MethodGet)
	api.HandleFunc("/mimetypes", h.GetMimeTypes).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)
	api.HandleFunc("/warm", h.TriggerWarm).Methods(http.MethodPost)
}
