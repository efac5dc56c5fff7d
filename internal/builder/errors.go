package builder

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailablePreviewType means the builder cannot produce the
	// requested kind.
	ErrUnavailablePreviewType = errors.New("unavailable preview type")

	// ErrUnsupportedMimeType means no registered builder handles the type.
	ErrUnsupportedMimeType = errors.New("unsupported mime type")

	// ErrPageOutOfRange means the page index is not in [0, page count).
	ErrPageOutOfRange = errors.New("page out of range")

	// ErrMissingDependency is returned by CheckDependencies when a library
	// or external tool the builder needs is not usable.
	ErrMissingDependency = errors.New("missing dependency")
)

// UnavailableError names the builder and kind behind an
// ErrUnavailablePreviewType.
type UnavailableError struct {
	Builder string
	Kind    Kind
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s builder: %s preview: %v", e.Builder, e.Kind, ErrUnavailablePreviewType)
}

func (e *UnavailableError) Unwrap() error {
	return ErrUnavailablePreviewType
}

func unavailable(b Builder, k Kind) error {
	return &UnavailableError{Builder: b.Name(), Kind: k}
}

func pageOutOfRange(page, count int) error {
	return fmt.Errorf("%w: page %d not in [0, %d)", ErrPageOutOfRange, page, count)
}
