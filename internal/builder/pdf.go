package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"preview-generator/internal/cachepath"
	"preview-generator/internal/converter"
	"preview-generator/internal/filesystem"
)

// PDFDocumentBuilder handles PDF documents. It also serves as the delegate
// for formats that are converted to PDF first.
type PDFDocumentBuilder struct{}

// NewPDFBuilder returns a PDF builder.
func NewPDFBuilder() *PDFDocumentBuilder {
	return &PDFDocumentBuilder{}
}

func (b *PDFDocumentBuilder) Name() string { return "pdf" }

func (b *PDFDocumentBuilder) MimeTypes() []string {
	return []string{"application/pdf"}
}

// CheckDependencies always succeeds; pdfcpu and MuPDF are linked in.
func (b *PDFDocumentBuilder) CheckDependencies() error { return nil }

func (b *PDFDocumentBuilder) Capabilities() Capabilities {
	return NewCapabilities(KindJPEG, KindPDF, KindJSON, KindText)
}

func (b *PDFDocumentBuilder) PageCount(ctx context.Context, filePath string) (int, error) {
	f, err := filesystem.OpenWithRetry(filePath, filesystem.DefaultRetryConfig())
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return converter.PDFPageCount(f)
}

func (b *PDFDocumentBuilder) BuildJPEG(ctx context.Context, req Request) error {
	return b.buildJPEG(req.FilePath, req)
}

func (b *PDFDocumentBuilder) buildJPEG(src string, req Request) error {
	img, err := converter.RenderPDFPage(src, req.Page)
	if err != nil {
		return err
	}
	size := req.size()
	return cachepath.WriteFileAtomic(req.OutputPath(KindJPEG), func(w io.Writer) error {
		return converter.EncodeJPEG(w, img, size.Width, size.Height)
	})
}

// BuildPDF copies the document for AllPages, otherwise writes a
// single-page document holding req.Page.
func (b *PDFDocumentBuilder) BuildPDF(ctx context.Context, req Request) error {
	return b.buildPDF(req.FilePath, req)
}

func (b *PDFDocumentBuilder) buildPDF(src string, req Request) error {
	f, err := filesystem.OpenWithRetry(src, filesystem.DefaultRetryConfig())
	if err != nil {
		return err
	}
	defer f.Close()

	out := req.OutputPath(KindPDF)
	if req.Page == AllPages {
		_, err := cachepath.WriteAtomic(out, f, 0)
		return err
	}
	return cachepath.WriteFileAtomic(out, func(w io.Writer) error {
		return converter.PDFExtractPage(f, w, req.Page)
	})
}

// DocumentInfo is the JSON preview of a paged document.
type DocumentInfo struct {
	PageCount int                  `json:"page_count"`
	Pages     []converter.PageSize `json:"pages"`
}

func (b *PDFDocumentBuilder) BuildJSON(ctx context.Context, req Request) error {
	return b.buildJSON(req.FilePath, req)
}

func (b *PDFDocumentBuilder) buildJSON(src string, req Request) error {
	f, err := filesystem.OpenWithRetry(src, filesystem.DefaultRetryConfig())
	if err != nil {
		return err
	}
	defer f.Close()

	sizes, err := converter.PDFPageSizes(f)
	if err != nil {
		return err
	}
	data, err := json.Marshal(DocumentInfo{PageCount: len(sizes), Pages: sizes})
	if err != nil {
		return fmt.Errorf("encode document info: %w", err)
	}
	_, err = cachepath.WriteAtomic(req.OutputPath(KindJSON), bytes.NewReader(data), jsonChunkSize)
	return err
}

// BuildText writes the text of req.Page, or of every page separated by
// form feeds for AllPages.
func (b *PDFDocumentBuilder) BuildText(ctx context.Context, req Request) error {
	f, err := filesystem.OpenWithRetry(req.FilePath, filesystem.DefaultRetryConfig())
	if err != nil {
		return err
	}
	defer f.Close()

	text, err := pdfText(ctx, f, req.Page)
	if err != nil {
		return err
	}
	_, err = cachepath.WriteAtomic(req.OutputPath(KindText), strings.NewReader(text), 0)
	return err
}

func pdfText(ctx context.Context, f *os.File, page int) (string, error) {
	if page < AllPages {
		count, err := converter.PDFPageCount(f)
		if err != nil {
			return "", err
		}
		return "", pageOutOfRange(page, count)
	}
	text, count, err := converter.PDFText(ctx, f, page)
	if errors.Is(err, converter.ErrPDFPageRange) {
		return "", pageOutOfRange(page, count)
	}
	return text, err
}
