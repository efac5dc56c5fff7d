package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"preview-generator/internal/preview"
	"preview-generator/internal/startup"
)

type Handlers struct {
	manager   *preview.Manager
	sourceDir string
	startTime time.Time

	// background warm runs
	warming    atomic.Bool
	warmWG     sync.WaitGroup
	warmCtx    context.Context
	warmCancel context.CancelFunc
}

func New(manager *preview.Manager, config *startup.Config) *Handlers {
	sourceDir, err := filepath.Abs(config.SourceDir)
	if err != nil {
		sourceDir = filepath.Clean(config.SourceDir)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Handlers{
		manager:    manager,
		sourceDir:  sourceDir,
		startTime:  time.Now(),
		warmCtx:    ctx,
		warmCancel: cancel,
	}
}

// Shutdown cancels a running warm and waits for it to stop.
func (h *Handlers) Shutdown() {
	h.warmCancel()
	h.warmWG.Wait()
}

// errInvalidPath marks request paths that escape the source directory.
var errInvalidPath = fmt.Errorf("invalid path")

// resolvePath maps a request path onto the source directory, rejecting
// anything that would leave it.
func (h *Handlers) resolvePath(rel string) (string, error) {
	if rel == "" {
		return "", errInvalidPath
	}
	fullPath := filepath.Join(h.sourceDir, filepath.FromSlash(rel))
	inside, err := filepath.Rel(h.sourceDir, fullPath)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", errInvalidPath
	}
	return fullPath, nil
}
