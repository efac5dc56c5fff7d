package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"preview-generator/internal/cachepath"
	"preview-generator/internal/converter"
	"preview-generator/internal/filesystem"
	"preview-generator/internal/logging"

	"golang.org/x/sync/singleflight"
)

// sourcePDFSuffix marks the intermediate PDF converted from an office
// document. It is named "{identity}.source.pdf".
const sourcePDFSuffix = ".source"

// OfficeBuilder converts office documents to PDF with LibreOffice and
// hands the result to a PDF builder.
type OfficeBuilder struct {
	converter *converter.OfficeConverter
	pdf       *PDFDocumentBuilder
	cacheDir  string

	// conversions deduplicates concurrent conversions of one source.
	conversions singleflight.Group
}

// NewOfficeBuilder returns an office builder driving conv. Converted PDFs
// are kept in cacheDir, or in the system temp directory when it is empty.
func NewOfficeBuilder(conv *converter.OfficeConverter, cacheDir string) *OfficeBuilder {
	if cacheDir == "" {
		cacheDir = os.TempDir()
	}
	return &OfficeBuilder{
		converter: conv,
		pdf:       NewPDFBuilder(),
		cacheDir:  cacheDir,
	}
}

func (b *OfficeBuilder) Name() string { return "office" }

func (b *OfficeBuilder) MimeTypes() []string {
	return []string{
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.oasis.opendocument.text",
		"application/rtf",
		"text/rtf",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.oasis.opendocument.spreadsheet",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.oasis.opendocument.presentation",
	}
}

func (b *OfficeBuilder) CheckDependencies() error {
	if b.converter == nil {
		return fmt.Errorf("%w: no office converter configured", ErrMissingDependency)
	}
	if err := b.converter.Available(); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingDependency, err)
	}
	return nil
}

func (b *OfficeBuilder) Capabilities() Capabilities {
	return NewCapabilities(KindJPEG, KindPDF, KindJSON)
}

// PageCount converts the document and counts the pages of the result.
// The conversion is kept for the next preview of the same source.
func (b *OfficeBuilder) PageCount(ctx context.Context, filePath string) (int, error) {
	pdfPath, err := b.sourcePDF(ctx, filePath)
	if err != nil {
		return 0, err
	}
	return b.pdf.PageCount(ctx, pdfPath)
}

func (b *OfficeBuilder) BuildJPEG(ctx context.Context, req Request) error {
	pdfPath, err := b.sourcePDF(ctx, req.FilePath)
	if err != nil {
		return err
	}
	return b.pdf.buildJPEG(pdfPath, req)
}

func (b *OfficeBuilder) BuildPDF(ctx context.Context, req Request) error {
	pdfPath, err := b.sourcePDF(ctx, req.FilePath)
	if err != nil {
		return err
	}
	return b.pdf.buildPDF(pdfPath, req)
}

func (b *OfficeBuilder) BuildJSON(ctx context.Context, req Request) error {
	pdfPath, err := b.sourcePDF(ctx, req.FilePath)
	if err != nil {
		return err
	}
	return b.pdf.buildJSON(pdfPath, req)
}

// sourcePDF returns the converted PDF for filePath, converting it on first
// use. The PDF is named after the file identity so an edited source is
// converted again.
func (b *OfficeBuilder) sourcePDF(ctx context.Context, filePath string) (string, error) {
	info, err := filesystem.StatWithRetry(filePath, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", err
	}
	name, err := cachepath.PreviewName(filePath, info, cachepath.NoPage, cachepath.Dims{})
	if err != nil {
		return "", err
	}

	out := cachepath.Path(b.cacheDir, name+sourcePDFSuffix, cachepath.ExtPDF)
	if cachepath.Exists(out) {
		return out, nil
	}

	// The conversion is shared by every waiter, so it runs detached from
	// the caller that started it and is bounded by the converter timeout.
	convCtx := context.WithoutCancel(ctx)
	ch := b.conversions.DoChan(name, func() (interface{}, error) {
		if cachepath.Exists(out) {
			return out, nil
		}
		start := time.Now()
		if err := b.converter.ToPDF(convCtx, filePath, out); err != nil {
			return nil, err
		}
		logging.Info("Converted %s to PDF in %v", filepath.Base(filePath), time.Since(start))
		return out, nil
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	case <-ctx.Done():
		return "", fmt.Errorf("convert %s: %w", filePath, ctx.Err())
	}
}
