// Package mimetypes turns files into the MIME type strings used as builder
// registry keys.
//
// Detection sniffs file content with github.com/gabriel-vasile/mimetype.
// When sniffing only yields a generic answer (text/plain, zip, OLE storage,
// octet-stream) the extension table refines it, so a .docx is reported as the
// OOXML word type rather than application/zip and a .js file as
// application/javascript rather than text/plain.
//
// All returned types are normalized: lowercase, no parameters.
package mimetypes
