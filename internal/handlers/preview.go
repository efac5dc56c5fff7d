package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"preview-generator/internal/builder"
	"preview-generator/internal/cachepath"
	"preview-generator/internal/filesystem"
	"preview-generator/internal/logging"
	"preview-generator/internal/middleware"
	"preview-generator/internal/preview"
)

var kindContentTypes = map[builder.Kind]string{
	builder.KindJPEG: "image/jpeg",
	builder.KindPDF:  "application/pdf",
	builder.KindHTML: "text/html; charset=utf-8",
	builder.KindJSON: "application/json",
	builder.KindText: "text/plain; charset=utf-8",
}

// GetPreview serves the requested preview kind of a source file, building
// it on a cache miss.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	relPath := vars["path"]

	kind, err := builder.ParseKind(vars["kind"])
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	fullPath, err := h.resolvePath(relPath)
	if err != nil {
		writePreviewError(w, "Preview", relPath, err)
		return
	}

	opts, err := parsePreviewOptions(r.URL.Query())
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.manager.Generate(r.Context(), fullPath, kind, opts)
	if err != nil {
		writePreviewError(w, "Preview", relPath, err)
		return
	}

	f, err := filesystem.OpenWithRetry(res.Path, filesystem.DefaultRetryConfig())
	if err != nil {
		writePreviewError(w, "Preview", relPath, fmt.Errorf("open artifact: %w", err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writePreviewError(w, "Preview", relPath, fmt.Errorf("stat artifact: %w", err))
		return
	}

	cacheStatus := "MISS"
	if res.Cached {
		cacheStatus = "HIT"
	}
	w.Header().Set(middleware.CacheStatusHeader, cacheStatus)
	w.Header().Set("Content-Type", kindContentTypes[kind])
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Preview-Builder", res.Builder)

	logging.Debug("Preview: %s %s (%s, %d bytes)", kind, relPath, cacheStatus, res.Size)
	http.ServeContent(w, r, path.Base(relPath)+kind.Extension(), info.ModTime(), f)
}

// parsePreviewOptions reads page, width, height and force. page accepts
// "all" for whole-document PDF and text previews. A single dimension
// bounds a square.
func parsePreviewOptions(q url.Values) (preview.Options, error) {
	var opts preview.Options

	if v := q.Get("page"); v != "" {
		if strings.EqualFold(v, "all") {
			opts.Page = builder.AllPages
		} else {
			page, err := strconv.Atoi(v)
			if err != nil || page < builder.AllPages {
				return opts, fmt.Errorf("invalid page %q", v)
			}
			opts.Page = page
		}
	}

	width, err := parseDimension(q, "width")
	if err != nil {
		return opts, err
	}
	height, err := parseDimension(q, "height")
	if err != nil {
		return opts, err
	}
	if width == 0 {
		width = height
	}
	if height == 0 {
		height = width
	}
	opts.Size = cachepath.Dims{Width: width, Height: height}

	if v := q.Get("force"); v != "" {
		force, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid force %q", v)
		}
		opts.Force = force
	}
	return opts, nil
}

// maxDimension bounds requested preview sizes.
const maxDimension = 4096

func parseDimension(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > maxDimension {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}

// DeletePreviews removes every cached preview of a source file.
func (h *Handlers) DeletePreviews(w http.ResponseWriter, r *http.Request) {
	relPath := mux.Vars(r)["path"]

	fullPath, err := h.resolvePath(relPath)
	if err != nil {
		writePreviewError(w, "Delete previews", relPath, err)
		return
	}

	removed, err := h.manager.Remove(r.Context(), fullPath)
	if err != nil {
		writePreviewError(w, "Delete previews", relPath, err)
		return
	}

	logging.Info("Removed %d previews of %s", removed, relPath)
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"path":    relPath,
		"removed": removed,
	})
}
