package mimetypes

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"text/plain", "text/plain"},
		{"text/plain; charset=utf-8", "text/plain"},
		{"Text/HTML ; charset=UTF-8", "text/html"},
		{"  application/pdf  ", "application/pdf"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetMimeType(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".jpg", "image/jpeg"},
		{".pdf", "application/pdf"},
		{".js", "application/javascript"},
		{".docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{".xyz", OctetStream},
		{"", OctetStream},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := GetMimeType(tt.ext); got != tt.want {
				t.Errorf("GetMimeType(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestRefine(t *testing.T) {
	tests := []struct {
		name     string
		detected string
		file     string
		want     string
	}{
		{"Specific type kept", "image/png", "a.txt", "image/png"},
		{"Plain text refined by .js", "text/plain; charset=utf-8", "app.js", "application/javascript"},
		{"Plain text refined by .md", "text/plain", "README.md", "text/markdown"},
		{"Zip refined by .docx", "application/zip", "a.docx",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"Plain text without known ext", "text/plain", "notes", "text/plain"},
		{"Octet stream unknown ext", OctetStream, "blob.bin", OctetStream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := refine(tt.detected, tt.file); got != tt.want {
				t.Errorf("refine(%q, %q) = %q, want %q", tt.detected, tt.file, got, tt.want)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	dir := t.TempDir()

	var pngBuf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}

	files := map[string][]byte{
		"image.png": pngBuf.Bytes(),
		"notes.txt": []byte("hello world\n"),
		"page.html": []byte("<!DOCTYPE html><html><body><p>hi</p></body></html>"),
		"doc.pdf":   []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"),
	}
	want := map[string]string{
		"image.png": "image/png",
		"notes.txt": "text/plain",
		"page.html": "text/html",
		"doc.pdf":   "application/pdf",
	}

	for name, data := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		t.Run(name, func(t *testing.T) {
			got, err := Detect(path)
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if got != want[name] {
				t.Errorf("Detect(%s) = %q, want %q", name, got, want[name])
			}
		})
	}

	if _, err := Detect(filepath.Join(dir, "missing")); err == nil {
		t.Error("Detect(missing) expected error")
	}
}

func TestDetectReader(t *testing.T) {
	got, err := DetectReader(bytes.NewReader([]byte("console.log(1)\n")), "main.js")
	if err != nil {
		t.Fatalf("DetectReader() error = %v", err)
	}
	if got != "application/javascript" {
		t.Errorf("DetectReader() = %q, want application/javascript", got)
	}
}
