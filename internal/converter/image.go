package converter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	"preview-generator/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageMetadata is the JSON preview of an image.
type ImageMetadata struct {
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Size   int64          `json:"size"`
	Mode   string         `json:"mode"`
	Info   map[string]any `json:"info"`
}

// DecodeImageMetadata reads the image header from r. size is the
// filesystem size of the source; when it is 0 the size is taken from the
// number of bytes in the stream instead, which drains r. The two are not
// guaranteed to match for special files.
func DecodeImageMetadata(r io.Reader, size int64) (meta *ImageMetadata, err error) {
	start := time.Now()
	defer func() { observe("image_metadata", start, err) }()

	cr := &countingReader{r: r}
	cfg, format, err := image.DecodeConfig(cr)
	if err != nil {
		return nil, fmt.Errorf("decode image config: %w", err)
	}

	if size == 0 {
		if _, err := io.Copy(io.Discard, cr); err != nil {
			return nil, fmt.Errorf("measure image stream: %w", err)
		}
		size = cr.n
	}

	info := map[string]any{"format": format}
	if p, ok := cfg.ColorModel.(color.Palette); ok {
		info["palette_size"] = len(p)
	}

	meta = &ImageMetadata{
		Width:  cfg.Width,
		Height: cfg.Height,
		Size:   size,
		Mode:   colorModelName(cfg.ColorModel),
		Info:   info,
	}
	logging.Debug("Image metadata: %dx%d %s (%s, %d bytes)", meta.Width, meta.Height, meta.Mode, format, size)
	return meta, nil
}

// ImageToJSON returns the JSON encoding of the image metadata as a stream.
func ImageToJSON(r io.Reader, size int64) (io.Reader, error) {
	meta, err := DecodeImageMetadata(r, size)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode image metadata: %w", err)
	}
	return bytes.NewReader(data), nil
}

// colorModelName maps Go color models to the usual image mode names.
// Decoders report opaque truecolor as RGBAModel (RGBA64Model at 16 bits)
// and alpha-carrying truecolor as NRGBAModel (NRGBA64Model), so those map
// to RGB and RGBA respectively.
func colorModelName(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	switch m {
	case color.YCbCrModel, color.RGBAModel, color.RGBA64Model:
		return "RGB"
	case color.NRGBAModel, color.NYCbCrAModel, color.NRGBA64Model:
		return "RGBA"
	case color.GrayModel, color.AlphaModel:
		return "L"
	case color.Gray16Model, color.Alpha16Model:
		return "I;16"
	case color.CMYKModel:
		return "CMYK"
	}
	return "unknown"
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
