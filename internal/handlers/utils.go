package handlers

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"preview-generator/internal/builder"
	"preview-generator/internal/logging"
	"preview-generator/internal/preview"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Encoding errors are only logged; the status line is already sent.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// statusFor maps preview errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, builder.ErrUnsupportedMimeType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, builder.ErrUnavailablePreviewType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, builder.ErrPageOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, preview.ErrNotAFile):
		return http.StatusNotFound
	case errors.Is(err, preview.ErrNoIndex):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// writePreviewError logs err and answers with its mapped status. Messages
// that would expose server paths are replaced by the status text.
func writePreviewError(w http.ResponseWriter, op, path string, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		logging.Error("%s failed for %s: %v", op, path, err)
		writeJSONError(w, http.StatusText(status), status)
	case http.StatusNotFound:
		logging.Debug("%s: not found %s: %v", op, path, err)
		writeJSONError(w, "File not found", status)
	default:
		logging.Debug("%s rejected for %s: %v", op, path, err)
		writeJSONError(w, clientMessage(err), status)
	}
}

// clientMessage drops wrapping that names absolute source paths.
func clientMessage(err error) string {
	var unavailable *builder.UnavailableError
	switch {
	case errors.As(err, &unavailable):
		return unavailable.Error()
	case errors.Is(err, builder.ErrPageOutOfRange):
		return builder.ErrPageOutOfRange.Error()
	case errors.Is(err, errInvalidPath):
		return "Invalid path"
	}
	return err.Error()
}
