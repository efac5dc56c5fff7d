package builder

import (
	"context"
	"io"
	"path/filepath"

	"preview-generator/internal/cachepath"
	"preview-generator/internal/converter"
	"preview-generator/internal/filesystem"
	"preview-generator/internal/mimetypes"
)

// textChunkSize is the read size used when copying text previews.
const textChunkSize = 1024

// PlainTextBuilder handles text formats. When an office builder is
// attached and usable, it renders JPEG and PDF previews of text through
// LibreOffice.
type PlainTextBuilder struct {
	office *OfficeBuilder
}

// NewPlainTextBuilder returns a text builder. office may be nil.
func NewPlainTextBuilder(office *OfficeBuilder) *PlainTextBuilder {
	b := &PlainTextBuilder{}
	if office != nil && office.CheckDependencies() == nil {
		b.office = office
	}
	return b
}

func (b *PlainTextBuilder) Name() string { return "plaintext" }

func (b *PlainTextBuilder) MimeTypes() []string {
	return []string{
		"text/plain",
		"text/html",
		"application/xml",
		"text/xml",
		"application/javascript",
		"text/javascript",
		"text/csv",
		"text/markdown",
	}
}

func (b *PlainTextBuilder) CheckDependencies() error { return nil }

func (b *PlainTextBuilder) Capabilities() Capabilities {
	caps := NewCapabilities(KindText, KindHTML)
	if b.office != nil {
		caps = caps.With(KindJPEG, KindPDF)
	}
	return caps
}

func (b *PlainTextBuilder) PageCount(ctx context.Context, filePath string) (int, error) {
	if b.office == nil {
		return 1, nil
	}
	return b.office.PageCount(ctx, filePath)
}

// BuildText copies the source unchanged.
func (b *PlainTextBuilder) BuildText(ctx context.Context, req Request) error {
	f, err := filesystem.OpenWithRetry(req.FilePath, filesystem.DefaultRetryConfig())
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = cachepath.WriteAtomic(req.OutputPath(KindText), converter.TextToText(f), textChunkSize)
	return err
}

// BuildHTML sanitises HTML sources and wraps any other text in <pre>.
func (b *PlainTextBuilder) BuildHTML(ctx context.Context, req Request) error {
	mime, err := mimetypes.Detect(req.FilePath)
	if err != nil {
		return err
	}

	f, err := filesystem.OpenWithRetry(req.FilePath, filesystem.DefaultRetryConfig())
	if err != nil {
		return err
	}
	defer f.Close()

	return cachepath.WriteFileAtomic(req.OutputPath(KindHTML), func(w io.Writer) error {
		if mime == "text/html" {
			return converter.SanitizeHTML(f, w)
		}
		return converter.TextToHTML(f, w, filepath.Base(req.FilePath))
	})
}

func (b *PlainTextBuilder) BuildJPEG(ctx context.Context, req Request) error {
	if b.office == nil {
		return unavailable(b, KindJPEG)
	}
	return b.office.BuildJPEG(ctx, req)
}

func (b *PlainTextBuilder) BuildPDF(ctx context.Context, req Request) error {
	if b.office == nil {
		return unavailable(b, KindPDF)
	}
	return b.office.BuildPDF(ctx, req)
}
