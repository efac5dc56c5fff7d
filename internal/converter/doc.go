// Package converter holds the format conversions behind the preview
// builders: image metadata and JPEG encoding (imaging, with libvips when
// it is running), PDF page counting, sizing, trimming and text extraction
// (pdfcpu), PDF rasterisation (go-fitz), office to PDF conversion through
// a headless LibreOffice, and the text and HTML renderings of plain text.
//
// Every conversion is recorded in the converter call and duration metrics.
package converter
