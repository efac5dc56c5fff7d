package converter

import (
	"fmt"
	"image"
	"time"

	"github.com/gen2brain/go-fitz"
)

// RenderDPI is the resolution used to rasterise PDF pages before they are
// fitted into the preview box.
const RenderDPI = 150

// RenderPDFPage rasterises the zero-based page of the PDF at path.
func RenderPDFPage(path string, page int) (img image.Image, err error) {
	start := time.Now()
	defer func() { observe("pdf_render", start, err) }()

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer doc.Close()

	if page < 0 || page >= doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range [0, %d)", page, doc.NumPage())
	}

	rgba, err := doc.ImageDPI(page, RenderDPI)
	if err != nil {
		return nil, fmt.Errorf("render page %d of %s: %w", page, path, err)
	}
	return rgba, nil
}
