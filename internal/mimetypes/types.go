package mimetypes

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// OctetStream is returned when nothing more specific is known.
const OctetStream = "application/octet-stream"

// MimeTypes maps lowercase file extensions to MIME types.
var MimeTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",

	// Documents
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".odt":  "application/vnd.oasis.opendocument.text",
	".rtf":  "application/rtf",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ods":  "application/vnd.oasis.opendocument.spreadsheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".odp":  "application/vnd.oasis.opendocument.presentation",

	// Text
	".txt":      "text/plain",
	".text":     "text/plain",
	".log":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".csv":      "text/csv",
	".html":     "text/html",
	".htm":      "text/html",
	".xml":      "application/xml",
	".js":       "application/javascript",
	".mjs":      "application/javascript",
}

// genericTypes are content-sniffing results too vague to beat an extension
// match: plain text could be markdown or JavaScript, zip could be any OOXML
// or OpenDocument file.
var genericTypes = map[string]bool{
	"text/plain":                true,
	OctetStream:                 true,
	"application/zip":           true,
	"application/x-ole-storage": true,
}

// Normalize strips parameters and case-folds a MIME type:
// "Text/HTML; charset=utf-8" becomes "text/html".
func Normalize(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

// GetMimeType returns the MIME type for a lowercase extension with its
// leading dot, or OctetStream.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return OctetStream
}

// Detect sniffs the content of the file at path and refines generic results
// with the file extension.
func Detect(path string) (string, error) {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect mime type of %s: %w", path, err)
	}
	return refine(m.String(), path), nil
}

// DetectReader is Detect for a stream; name supplies the extension.
func DetectReader(r io.Reader, name string) (string, error) {
	m, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("detect mime type of %s: %w", name, err)
	}
	return refine(m.String(), name), nil
}

func refine(detected, name string) string {
	detected = Normalize(detected)
	if !genericTypes[detected] {
		return detected
	}
	if byExt, ok := MimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return byExt
	}
	return detected
}
