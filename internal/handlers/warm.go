package handlers

import (
	"errors"
	"net/http"

	"preview-generator/internal/builder"
	"preview-generator/internal/logging"
	"preview-generator/internal/preview"
)

// TriggerWarm starts a background warm run over the source directory, or
// the subdirectory named by ?path=. ?kind= limits the kinds generated.
func (h *Handlers) TriggerWarm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	kinds, err := builder.ParseKinds(q["kind"])
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	root := h.sourceDir
	if rel := q.Get("path"); rel != "" {
		if root, err = h.resolvePath(rel); err != nil {
			writePreviewError(w, "Warm", rel, err)
			return
		}
	}

	if !h.warming.CompareAndSwap(false, true) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		writeJSON(w, map[string]string{
			"status":  "already_running",
			"message": "A warm run is already in progress",
		})
		return
	}

	files, err := preview.CollectFiles(root)
	if err != nil {
		h.warming.Store(false)
		writePreviewError(w, "Warm", q.Get("path"), err)
		return
	}

	h.warmWG.Add(1)
	go func() {
		defer h.warmWG.Done()
		defer h.warming.Store(false)

		if _, err := h.manager.Warm(h.warmCtx, files, kinds); err != nil && !errors.Is(err, h.warmCtx.Err()) {
			logging.Error("Warm run failed: %v", err)
		}
	}()

	logging.Info("Warm started: %d files, kinds %v", len(files), kinds)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]interface{}{
		"status": "started",
		"files":  len(files),
		"kinds":  kinds,
	})
}

// IsWarming reports whether a background warm run is active.
func (h *Handlers) IsWarming() bool {
	return h.warming.Load()
}
