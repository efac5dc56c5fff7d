package builder

import (
	"context"

	"preview-generator/internal/cachepath"
)

// Builder produces previews for the MIME types it declares. Which kinds it
// produces is given by Capabilities together with the per-kind interfaces
// below; Build checks both.
type Builder interface {
	Name() string
	MimeTypes() []string
	CheckDependencies() error
	Capabilities() Capabilities
	PageCount(ctx context.Context, filePath string) (int, error)
}

type JPEGBuilder interface {
	BuildJPEG(ctx context.Context, req Request) error
}

type PDFBuilder interface {
	BuildPDF(ctx context.Context, req Request) error
}

type HTMLBuilder interface {
	BuildHTML(ctx context.Context, req Request) error
}

type JSONBuilder interface {
	BuildJSON(ctx context.Context, req Request) error
}

type TextBuilder interface {
	BuildText(ctx context.Context, req Request) error
}

// Request describes one preview to write. The artifact goes to
// OutputPath(kind).
type Request struct {
	FilePath    string
	PreviewName string
	CacheDir    string
	Page        int
	Size        cachepath.Dims
}

// OutputPath returns the artifact location for kind.
func (r Request) OutputPath(kind Kind) string {
	return cachepath.Path(r.CacheDir, r.PreviewName, kind.Extension())
}

// DefaultSize is the JPEG bounding box used when a request gives none.
var DefaultSize = cachepath.Dims{Width: 256, Height: 256}

func (r Request) size() cachepath.Dims {
	if r.Size.IsZero() {
		return DefaultSize
	}
	return r.Size
}

// OnePage is embedded by builders for single-page formats.
type OnePage struct{}

// PageCount is always 1.
func (OnePage) PageCount(context.Context, string) (int, error) {
	return 1, nil
}
