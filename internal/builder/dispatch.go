package builder

import (
	"context"
	"fmt"
)

type buildFunc func(context.Context, Request) error

func operation(b Builder, kind Kind) buildFunc {
	switch kind {
	case KindJPEG:
		if v, ok := b.(JPEGBuilder); ok {
			return v.BuildJPEG
		}
	case KindPDF:
		if v, ok := b.(PDFBuilder); ok {
			return v.BuildPDF
		}
	case KindHTML:
		if v, ok := b.(HTMLBuilder); ok {
			return v.BuildHTML
		}
	case KindJSON:
		if v, ok := b.(JSONBuilder); ok {
			return v.BuildJSON
		}
	case KindText:
		if v, ok := b.(TextBuilder); ok {
			return v.BuildText
		}
	}
	return nil
}

// Supports reports whether b can produce kind.
func Supports(b Builder, kind Kind) bool {
	return b.Capabilities().Has(kind) && operation(b, kind) != nil
}

// Build writes the kind preview described by req with b and returns the
// artifact path. Kinds outside the builder's capabilities fail with
// ErrUnavailablePreviewType before anything is written. JPEG and PDF
// previews need req.Page in [0, PageCount); PDF also accepts AllPages.
func Build(ctx context.Context, b Builder, kind Kind, req Request) (string, error) {
	if !b.Capabilities().Has(kind) {
		return "", unavailable(b, kind)
	}
	run := operation(b, kind)
	if run == nil {
		return "", unavailable(b, kind)
	}

	if kind.Paged() && !(kind == KindPDF && req.Page == AllPages) {
		count, err := b.PageCount(ctx, req.FilePath)
		if err != nil {
			return "", fmt.Errorf("%s page count of %s: %w", b.Name(), req.FilePath, err)
		}
		if req.Page < 0 || req.Page >= count {
			return "", pageOutOfRange(req.Page, count)
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := run(ctx, req); err != nil {
		return "", fmt.Errorf("%s %s preview of %s: %w", b.Name(), kind, req.FilePath, err)
	}
	return req.OutputPath(kind), nil
}
