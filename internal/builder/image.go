package builder

import (
	"context"
	"fmt"
	"io"

	"preview-generator/internal/cachepath"
	"preview-generator/internal/converter"
	"preview-generator/internal/filesystem"
)

// jsonChunkSize is the read size used when streaming JSON previews.
const jsonChunkSize = 256

// ImageBuilder handles raster images.
type ImageBuilder struct {
	OnePage
}

// NewImageBuilder returns an image builder.
func NewImageBuilder() *ImageBuilder {
	return &ImageBuilder{}
}

func (b *ImageBuilder) Name() string { return "image" }

func (b *ImageBuilder) MimeTypes() []string {
	return []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/bmp",
		"image/webp",
		"image/tiff",
	}
}

// CheckDependencies always succeeds; the stdlib and imaging decoders are
// compiled in and libvips is optional.
func (b *ImageBuilder) CheckDependencies() error { return nil }

func (b *ImageBuilder) Capabilities() Capabilities {
	return NewCapabilities(KindJPEG, KindJSON)
}

// BuildJSON writes the image metadata record. The size field is the
// filesystem size of the source; the decoded stream length is used only
// when stat reports zero bytes.
func (b *ImageBuilder) BuildJSON(ctx context.Context, req Request) error {
	f, err := filesystem.OpenWithRetry(req.FilePath, filesystem.DefaultRetryConfig())
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", req.FilePath, err)
	}

	r, err := converter.ImageToJSON(f, info.Size())
	if err != nil {
		return err
	}
	_, err = cachepath.WriteAtomic(req.OutputPath(KindJSON), r, jsonChunkSize)
	return err
}

// BuildJPEG writes a thumbnail fitted into req.Size.
func (b *ImageBuilder) BuildJPEG(ctx context.Context, req Request) error {
	size := req.size()
	img, err := converter.LoadImage(req.FilePath, size.Width, size.Height)
	if err != nil {
		return err
	}
	return cachepath.WriteFileAtomic(req.OutputPath(KindJPEG), func(w io.Writer) error {
		return converter.EncodeJPEG(w, img, size.Width, size.Height)
	})
}
