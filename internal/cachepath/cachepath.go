package cachepath

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Artifact extensions.
const (
	ExtJPEG = ".jpg"
	ExtPDF  = ".pdf"
	ExtHTML = ".html"
	ExtJSON = ".json"
	ExtText = ".txt"
)

// NoPage marks a preview that is not tied to a single page.
const NoPage = -1

// Dims is a preview bounding box. The zero value means "no size".
type Dims struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero reports whether no size was given.
func (d Dims) IsZero() bool {
	return d.Width <= 0 || d.Height <= 0
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// FileIdentity is the md5 of the absolute path, size and modification time.
// Editing a source therefore yields a new identity and new preview names.
func FileIdentity(absPath string, size int64, modTime time.Time) string {
	h := md5.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d", absPath, size, modTime.UnixNano())
	return fmt.Sprintf("%x", h.Sum(nil))
}

// PreviewName derives the artifact base name for a source file, a page and
// a size: "{identity}[-{W}x{H}][-page{N}]".
func PreviewName(filePath string, info os.FileInfo, page int, size Dims) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", filePath, err)
	}
	name := FileIdentity(absPath, info.Size(), info.ModTime())
	if !size.IsZero() {
		name += "-" + size.String()
	}
	if page >= 0 {
		name += fmt.Sprintf("-page%d", page)
	}
	return name, nil
}

// Path composes "{cacheDir}/{previewName}{ext}".
func Path(cacheDir, previewName, ext string) string {
	return filepath.Join(cacheDir, previewName+ext)
}

// Exists reports whether a non-empty artifact is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// WriteAtomic copies r into path through a temporary file in the same
// directory, reading chunk bytes at a time. The destination only appears
// once the copy has fully succeeded.
func WriteAtomic(path string, r io.Reader, chunk int) (n int64, err error) {
	if chunk <= 0 {
		chunk = 32 * 1024
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	n, err = io.CopyBuffer(onlyWriter{tmp}, onlyReader{r}, make([]byte, chunk))
	if err != nil {
		return n, fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return n, fmt.Errorf("sync %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return n, fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return n, fmt.Errorf("chmod %s: %w", path, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return n, fmt.Errorf("rename into %s: %w", path, err)
	}
	return n, nil
}

// WriteFileAtomic is WriteAtomic for a callback that produces the content.
// produce has returned by the time WriteFileAtomic does, so it may read
// from files the caller closes afterwards.
func WriteFileAtomic(path string, produce func(w io.Writer) error) error {
	pr, pw := io.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		pw.CloseWithError(produce(pw))
	}()
	_, err := WriteAtomic(path, pr, 0)
	if err != nil {
		pr.CloseWithError(err)
	} else {
		pr.Close()
	}
	<-done
	return err
}

// The wrappers hide ReadFrom/WriteTo so io.CopyBuffer honours the chunk size.
type onlyWriter struct{ io.Writer }

type onlyReader struct{ io.Reader }
