package converter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"preview-generator/internal/fixtures"
)

func TestDecodeImageMetadata(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantMode string
		wantW    int
		wantH    int
	}{
		{"jpeg", fixtures.JPEG(100, 50), "RGB", 100, 50},
		{"png with alpha", fixtures.PNG(20, 30), "RGBA", 20, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size := int64(len(tt.data))
			meta, err := DecodeImageMetadata(bytes.NewReader(tt.data), size)
			if err != nil {
				t.Fatalf("DecodeImageMetadata() error = %v", err)
			}
			if meta.Width != tt.wantW || meta.Height != tt.wantH {
				t.Errorf("dimensions = %dx%d, want %dx%d", meta.Width, meta.Height, tt.wantW, tt.wantH)
			}
			if meta.Mode != tt.wantMode {
				t.Errorf("Mode = %q, want %q", meta.Mode, tt.wantMode)
			}
			if meta.Size != size {
				t.Errorf("Size = %d, want %d", meta.Size, size)
			}
		})
	}
}

func TestDecodeImageMetadataStreamSize(t *testing.T) {
	data := fixtures.JPEG(16, 16)
	meta, err := DecodeImageMetadata(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("DecodeImageMetadata() error = %v", err)
	}
	if meta.Size != int64(len(data)) {
		t.Errorf("Size = %d, want stream length %d", meta.Size, len(data))
	}
}

func TestDecodeImageMetadataInvalid(t *testing.T) {
	if _, err := DecodeImageMetadata(strings.NewReader("not an image"), 12); err == nil {
		t.Error("expected error for non-image input")
	}
}

func TestImageToJSON(t *testing.T) {
	data := fixtures.JPEG(100, 50)
	r, err := ImageToJSON(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ImageToJSON() error = %v", err)
	}

	var got map[string]any
	if err := json.NewDecoder(r).Decode(&got); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	for _, key := range []string{"width", "height", "size", "mode", "info"} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing key %q in %v", key, got)
		}
	}
	if got["width"] != float64(100) || got["height"] != float64(50) {
		t.Errorf("width/height = %v/%v, want 100/50", got["width"], got["height"])
	}
	if got["mode"] != "RGB" {
		t.Errorf("mode = %v, want RGB", got["mode"])
	}
	info, _ := got["info"].(map[string]any)
	if info["format"] != "jpeg" {
		t.Errorf("info.format = %v, want jpeg", info["format"])
	}
}

func TestColorModelName(t *testing.T) {
	tests := []struct {
		img  image.Image
		want string
	}{
		{image.NewRGBA(image.Rect(0, 0, 1, 1)), "RGB"},
		{image.NewNRGBA(image.Rect(0, 0, 1, 1)), "RGBA"},
		{image.NewRGBA64(image.Rect(0, 0, 1, 1)), "RGB"},
		{image.NewNRGBA64(image.Rect(0, 0, 1, 1)), "RGBA"},
		{image.NewGray(image.Rect(0, 0, 1, 1)), "L"},
		{image.NewGray16(image.Rect(0, 0, 1, 1)), "I;16"},
		{image.NewCMYK(image.Rect(0, 0, 1, 1)), "CMYK"},
		{image.NewPaletted(image.Rect(0, 0, 1, 1), nil), "P"},
	}
	for _, tt := range tests {
		if got := colorModelName(tt.img.ColorModel()); got != tt.want {
			t.Errorf("colorModelName(%T) = %q, want %q", tt.img, got, tt.want)
		}
	}
}

func TestDecodeImageMetadataOpaque16BitPNG(t *testing.T) {
	img := image.NewRGBA64(image.Rect(0, 0, 100, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 100; x++ {
			img.SetRGBA64(x, y, color.RGBA64{R: 0x1234, G: 0x5678, B: 0x9abc, A: 0xffff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	meta, err := DecodeImageMetadata(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("DecodeImageMetadata() error = %v", err)
	}
	if meta.Mode != "RGB" {
		t.Errorf("Mode = %q, want RGB for opaque 16-bit truecolor", meta.Mode)
	}
}

func TestEncodeJPEGFitsBox(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))

	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, img, 100, 100); err != nil {
		t.Fatalf("EncodeJPEG() error = %v", err)
	}
	cfg, format, err := image.DecodeConfig(&buf)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("output = %dx%d, want 100x50", cfg.Width, cfg.Height)
	}
}

func TestEncodeJPEGNilImage(t *testing.T) {
	if err := EncodeJPEG(io.Discard, nil, 10, 10); err == nil {
		t.Error("expected error for nil image")
	}
}

func TestLoadImageWithoutVips(t *testing.T) {
	path := fixtures.Write(t, t.TempDir(), "photo.jpg", fixtures.JPEG(64, 32))
	img, err := LoadImage(path, 32, 32)
	if err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Errorf("bounds = %v, want 64x32", b)
	}
}

func TestPDFPageCountAndSize(t *testing.T) {
	data := fixtures.PDF("one", "two", "three")

	count, err := PDFPageCount(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("PDFPageCount() error = %v", err)
	}
	if count != 3 {
		t.Errorf("PDFPageCount() = %d, want 3", count)
	}

	w, h, err := PDFPageSize(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("PDFPageSize() error = %v", err)
	}
	if w != 612 || h != 792 {
		t.Errorf("PDFPageSize() = %dx%d, want 612x792", w, h)
	}

	if _, _, err := PDFPageSize(bytes.NewReader(data), 3); err == nil {
		t.Error("expected error for page past the end")
	}

	sizes, err := PDFPageSizes(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("PDFPageSizes() error = %v", err)
	}
	if len(sizes) != 3 || sizes[2].Page != 2 {
		t.Errorf("PDFPageSizes() = %+v", sizes)
	}
}

func TestPDFExtractPage(t *testing.T) {
	data := fixtures.PDF("first", "second")

	var out bytes.Buffer
	if err := PDFExtractPage(bytes.NewReader(data), &out, 1); err != nil {
		t.Fatalf("PDFExtractPage() error = %v", err)
	}
	count, err := PDFPageCount(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("count extracted pages: %v", err)
	}
	if count != 1 {
		t.Errorf("extracted document has %d pages, want 1", count)
	}
	text, err := PDFPageText(bytes.NewReader(out.Bytes()), 0)
	if err != nil {
		t.Fatalf("PDFPageText() error = %v", err)
	}
	if text != "second" {
		t.Errorf("extracted page text = %q, want %q", text, "second")
	}
}

func TestPDFPageText(t *testing.T) {
	data := fixtures.PDF("Hello (world)")
	text, err := PDFPageText(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("PDFPageText() error = %v", err)
	}
	if text != "Hello (world)" {
		t.Errorf("PDFPageText() = %q", text)
	}
}

func TestPDFText(t *testing.T) {
	data := fixtures.PDF("first", "second", "third")

	tests := []struct {
		name    string
		page    int
		want    string
		wantErr error
	}{
		{"single page", 1, "second", nil},
		{"all pages", -1, "first\fsecond\fthird", nil},
		{"past the end", 3, "", ErrPDFPageRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, pages, err := PDFText(context.Background(), bytes.NewReader(data), tt.page)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("PDFText() error = %v, want %v", err, tt.wantErr)
			}
			if pages != 3 {
				t.Errorf("pages = %d, want 3", pages)
			}
			if text != tt.want {
				t.Errorf("PDFText() = %q, want %q", text, tt.want)
			}
		})
	}
}

func TestPDFTextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := PDFText(ctx, bytes.NewReader(fixtures.PDF("a", "b")), -1); !errors.Is(err, context.Canceled) {
		t.Errorf("PDFText() error = %v, want context.Canceled", err)
	}
}

func TestTextFromContentStream(t *testing.T) {
	stream := []byte("BT\n/F1 12 Tf\n72 720 Td\n(line one) Tj\n0 -14 Td\n[(line) -250 (two)] TJ\nT*\n(tab\\there) Tj\nET")
	got := textFromContentStream(stream)
	want := "line one\nlinetwo\ntab\there"
	if got != want {
		t.Errorf("textFromContentStream() = %q, want %q", got, want)
	}
}

func TestDecodePDFString(t *testing.T) {
	tests := []struct{ in, want string }{
		{`plain`, "plain"},
		{`a\(b\)`, "a(b)"},
		{`back\\slash`, `back\slash`},
		{`\101\102`, "AB"},
		{`new\nline`, "new\nline"},
	}
	for _, tt := range tests {
		if got := decodePDFString([]byte(tt.in)); got != tt.want {
			t.Errorf("decodePDFString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderPDFPage(t *testing.T) {
	path := fixtures.Write(t, t.TempDir(), "doc.pdf", fixtures.PDF("render me"))

	img, err := RenderPDFPage(path, 0)
	if err != nil {
		t.Fatalf("RenderPDFPage() error = %v", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() <= b.Dx() {
		t.Errorf("rendered bounds %v, want a portrait page", b)
	}

	if _, err := RenderPDFPage(path, 1); err == nil {
		t.Error("expected error for page past the end")
	}
}

func TestTextToTextIsIdentity(t *testing.T) {
	src := "exact bytes\r\n\x00\xff kept"
	got, err := io.ReadAll(TextToText(strings.NewReader(src)))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != src {
		t.Errorf("TextToText() = %q, want %q", got, src)
	}
}

func TestTextToHTML(t *testing.T) {
	var out bytes.Buffer
	if err := TextToHTML(strings.NewReader("<script>alert(1)</script> & more"), &out, "notes.txt"); err != nil {
		t.Fatalf("TextToHTML() error = %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>notes.txt</title>",
		"<pre>&lt;script&gt;alert(1)&lt;/script&gt; &amp; more</pre>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("output contains unescaped script tag:\n%s", got)
	}
}

func TestSanitizeHTML(t *testing.T) {
	src := `<p onclick="steal()">Hello <b>there</b></p><script>alert(1)</script>`
	var out bytes.Buffer
	if err := SanitizeHTML(strings.NewReader(src), &out); err != nil {
		t.Fatalf("SanitizeHTML() error = %v", err)
	}
	got := out.String()
	if strings.Contains(got, "script") || strings.Contains(got, "onclick") {
		t.Errorf("active content not removed: %s", got)
	}
	if !strings.Contains(got, "<b>there</b>") {
		t.Errorf("safe markup dropped: %s", got)
	}
}

func TestOfficeConverterUnavailable(t *testing.T) {
	c := NewOfficeConverter(filepath.Join(t.TempDir(), "no-such-soffice"), time.Second)
	if err := c.Available(); !errors.Is(err, ErrOfficeUnavailable) {
		t.Errorf("Available() error = %v, want ErrOfficeUnavailable", err)
	}

	out := filepath.Join(t.TempDir(), "out.pdf")
	err := c.ToPDF(context.Background(), "input.docx", out)
	if !errors.Is(err, ErrOfficeUnavailable) {
		t.Errorf("ToPDF() error = %v, want ErrOfficeUnavailable", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Errorf("output should not exist after failed conversion")
	}
}

func TestNewOfficeConverterDefaults(t *testing.T) {
	c := NewOfficeConverter("", 0)
	if c.Binary != DefaultOfficeBinary {
		t.Errorf("Binary = %q, want %q", c.Binary, DefaultOfficeBinary)
	}
	if c.Timeout <= 0 {
		t.Errorf("Timeout = %v, want positive default", c.Timeout)
	}
	if n := cap(c.slots); n < 1 || n > maxOfficeProcesses {
		t.Errorf("process slots = %d, want 1..%d", n, maxOfficeProcesses)
	}
}

func TestOfficeConverterWaitsForSlot(t *testing.T) {
	t.Setenv("PREVIEW_WORKERS", "1")
	c := NewOfficeConverter("sh", time.Second)
	c.slots <- struct{}{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	err := c.ToPDF(ctx, filepath.Join(dir, "in.docx"), filepath.Join(dir, "out.pdf"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ToPDF() with no free slot error = %v, want context.Canceled", err)
	}
}
