package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"preview-generator/internal/preview"
)

// PagesResponse is the body of GET /api/pages/{path}.
type PagesResponse struct {
	Path     string `json:"path"`
	MimeType string `json:"mimeType"`
	Pages    int    `json:"pages"`
}

// GetPages reports the page count of a source file.
func (h *Handlers) GetPages(w http.ResponseWriter, r *http.Request) {
	relPath := mux.Vars(r)["path"]

	fullPath, err := h.resolvePath(relPath)
	if err != nil {
		writePreviewError(w, "Pages", relPath, err)
		return
	}

	mime, err := h.manager.MimeType(fullPath)
	if err != nil {
		writePreviewError(w, "Pages", relPath, err)
		return
	}
	pages, err := h.manager.PageCount(r.Context(), fullPath)
	if err != nil {
		writePreviewError(w, "Pages", relPath, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, PagesResponse{Path: relPath, MimeType: mime, Pages: pages})
}

// MimeTypesResponse is the body of GET /api/mimetypes.
type MimeTypesResponse struct {
	MimeTypes []string              `json:"mimeTypes"`
	Builders  []preview.BuilderInfo `json:"builders"`
}

// GetMimeTypes lists the supported MIME types and the registered builders.
func (h *Handlers) GetMimeTypes(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, MimeTypesResponse{
		MimeTypes: h.manager.SupportedMimeTypes(),
		Builders:  h.manager.Builders(),
	})
}

// GetStats returns cache size and index statistics.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.manager.CacheStats(r.Context())
	if err != nil {
		writePreviewError(w, "Stats", "", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, stats)
}
