package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"preview-generator/internal/logging"
	"preview-generator/internal/workers"
)

// DefaultOfficeBinary is the LibreOffice executable looked up on PATH.
const DefaultOfficeBinary = "soffice"

// maxOfficeProcesses caps concurrent LibreOffice processes per converter.
const maxOfficeProcesses = 4

// ErrOfficeUnavailable is returned when the LibreOffice binary is missing.
var ErrOfficeUnavailable = errors.New("libreoffice not available")

// OfficeConverter converts office documents to PDF with a headless
// LibreOffice process.
type OfficeConverter struct {
	Binary  string
	Timeout time.Duration

	slots chan struct{} // nil means unlimited
}

// NewOfficeConverter returns a converter for binary, or soffice on PATH
// when binary is empty.
func NewOfficeConverter(binary string, timeout time.Duration) *OfficeConverter {
	if binary == "" {
		binary = DefaultOfficeBinary
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &OfficeConverter{
		Binary:  binary,
		Timeout: timeout,
		slots:   make(chan struct{}, workers.ForExternal(maxOfficeProcesses)),
	}
}

// Available resolves the binary.
func (c *OfficeConverter) Available() error {
	if _, err := exec.LookPath(c.Binary); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOfficeUnavailable, c.Binary, err)
	}
	return nil
}

// ToPDF converts src and places the result at outPath. Each conversion gets
// its own LibreOffice profile directory so concurrent runs do not contend
// for the profile lock.
func (c *OfficeConverter) ToPDF(ctx context.Context, src, outPath string) (err error) {
	start := time.Now()
	defer func() { observe("office", start, err) }()

	binPath, err := exec.LookPath(c.Binary)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOfficeUnavailable, c.Binary, err)
	}

	if c.slots != nil {
		select {
		case c.slots <- struct{}{}:
			defer func() { <-c.slots }()
		case <-ctx.Done():
			return fmt.Errorf("waiting to convert %s: %w", src, ctx.Err())
		}
	}

	workDir, err := os.MkdirTemp(filepath.Dir(outPath), ".office-*")
	if err != nil {
		return fmt.Errorf("create office work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	profile := "file://" + filepath.ToSlash(filepath.Join(workDir, "profile"))
	cmd := exec.CommandContext(ctx, binPath,
		"-env:UserInstallation="+profile,
		"--headless",
		"--norestore",
		"--convert-to", "pdf",
		"--outdir", workDir,
		src,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.Debug("Running %s to convert %s", c.Binary, src)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("libreoffice conversion of %s: %w", src, ctx.Err())
		}
		return fmt.Errorf("libreoffice failed: %v, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	produced := filepath.Join(workDir, base+".pdf")
	if _, err := os.Stat(produced); err != nil {
		return fmt.Errorf("libreoffice produced no output for %s (stdout: %s)", src, strings.TrimSpace(stdout.String()))
	}

	if err := os.Rename(produced, outPath); err != nil {
		return fmt.Errorf("move converted pdf into place: %w", err)
	}
	logging.Debug("Converted %s to %s in %v", src, outPath, time.Since(start))
	return nil
}
