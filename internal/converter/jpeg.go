package converter

import (
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"preview-generator/internal/logging"

	"github.com/disintegration/imaging"
)

// JPEGQuality is the encoder quality for JPEG previews.
const JPEGQuality = 80

// LoadImage decodes the image at path. libvips is tried first when it is
// running, since it can shrink during decode; then imaging with EXIF
// auto-orientation; then the plain stdlib decoders.
func LoadImage(path string, width, height int) (image.Image, error) {
	if IsVipsAvailable() && width > 0 && height > 0 {
		img, err := loadWithVips(path, width, height)
		if err == nil {
			return img, nil
		}
		logging.Debug("vips failed for %s: %v, falling back to imaging", path, err)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}
	logging.Debug("imaging.Open failed for %s: %v, trying stdlib decode", path, err)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("all image decode methods failed for %s: %w", path, err)
	}
	logging.Debug("Decoded %s as %s", path, format)
	return img, nil
}

// EncodeJPEG fits img inside width x height and writes it as JPEG.
// A zero width or height keeps the original dimensions.
func EncodeJPEG(w io.Writer, img image.Image, width, height int) (err error) {
	start := time.Now()
	defer func() { observe("image_jpeg", start, err) }()

	if img == nil {
		return fmt.Errorf("encode jpeg: nil image")
	}
	if width > 0 && height > 0 {
		img = imaging.Fit(img, width, height, imaging.Lanczos)
	}
	if err := imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}
