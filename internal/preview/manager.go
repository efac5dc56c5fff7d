package preview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"preview-generator/internal/builder"
	"preview-generator/internal/cachepath"
	"preview-generator/internal/filesystem"
	"preview-generator/internal/index"
	"preview-generator/internal/logging"
	"preview-generator/internal/metrics"
	"preview-generator/internal/mimetypes"

	"golang.org/x/sync/singleflight"
)

// ErrNotAFile is returned when the source path is a directory or another
// non-regular file.
var ErrNotAFile = errors.New("not a regular file")

// ErrNoIndex is returned by operations that need the artifact index when
// the manager has none.
var ErrNoIndex = errors.New("no preview index configured")

// Config configures a Manager.
type Config struct {
	CacheDir string
	Registry *builder.Registry
	// Index is optional; when set every generated artifact is recorded.
	Index       *index.Index
	DefaultSize cachepath.Dims
	// Backpressure, when set, is consulted before each Warm item.
	Backpressure Backpressure
}

// Backpressure pauses batch generation; memory.Monitor implements it.
type Backpressure interface {
	Wait(ctx context.Context) error
}

// Options adjusts a single Generate call.
type Options struct {
	// Page is the zero-based page for JPEG, PDF and text previews.
	// builder.AllPages asks for the whole document.
	Page int
	// Size bounds JPEG previews; zero uses the manager default.
	Size cachepath.Dims
	// Force rebuilds even when the artifact is cached.
	Force bool
}

// Result describes a preview artifact.
type Result struct {
	Path        string       `json:"path"`
	Kind        builder.Kind `json:"kind"`
	MimeType    string       `json:"mimeType"`
	Builder     string       `json:"builder"`
	PreviewName string       `json:"previewName"`
	Page        int          `json:"page"`
	Size        int64        `json:"size"`
	Cached      bool         `json:"cached"`
}

// Manager generates and caches previews.
type Manager struct {
	cacheDir     string
	registry     *builder.Registry
	index        *index.Index
	defaultSize  cachepath.Dims
	backpressure Backpressure

	builds singleflight.Group

	// Cache size memoisation
	cacheSizeMu     sync.Mutex
	cachedBytes     atomic.Int64
	cachedCount     atomic.Int64
	lastCacheUpdate atomic.Int64
}

// cacheSizeTTL is how long a cache directory walk is reused.
const cacheSizeTTL = 2 * time.Minute

// New creates a Manager and its cache directory.
func New(cfg Config) (*Manager, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("preview manager: no builder registry")
	}
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("preview manager: no cache directory")
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", cfg.CacheDir, err)
	}
	size := cfg.DefaultSize
	if size.IsZero() {
		size = builder.DefaultSize
	}

	logging.Debug("Preview manager: cache dir %s, default size %s", cfg.CacheDir, size)
	return &Manager{
		cacheDir:     cfg.CacheDir,
		registry:     cfg.Registry,
		index:        cfg.Index,
		defaultSize:  size,
		backpressure: cfg.Backpressure,
	}, nil
}

// CacheDir returns the artifact directory.
func (m *Manager) CacheDir() string {
	return m.cacheDir
}

// Generate returns the kind preview of filePath, building it unless a
// cached artifact exists and opts.Force is unset.
func (m *Manager) Generate(ctx context.Context, filePath string, kind builder.Kind, opts Options) (*Result, error) {
	absPath, info, err := statSource(filePath)
	if err != nil {
		return nil, err
	}

	mime, err := mimetypes.Detect(absPath)
	if err != nil {
		return nil, err
	}
	b, err := m.registry.Resolve(mime)
	if err != nil {
		return nil, err
	}
	if !builder.Supports(b, kind) {
		return nil, &builder.UnavailableError{Builder: b.Name(), Kind: kind}
	}

	page, size := m.variant(kind, opts)
	name, err := cachepath.PreviewName(absPath, info, page, size)
	if err != nil {
		return nil, err
	}
	out := cachepath.Path(m.cacheDir, name, kind.Extension())

	res := &Result{
		Path:        out,
		Kind:        kind,
		MimeType:    mime,
		Builder:     b.Name(),
		PreviewName: name,
		Page:        page,
	}

	if !opts.Force && cachepath.Exists(out) {
		metrics.PreviewCacheHits.WithLabelValues(string(kind)).Inc()
		logging.Debug("Preview cache hit: %s (%s)", filePath, kind)
		res.Cached = true
		res, err = m.finish(res)
		if err != nil {
			return nil, err
		}
		m.backfill(ctx, absPath, res)
		return res, nil
	}
	metrics.PreviewCacheMisses.WithLabelValues(string(kind)).Inc()

	req := builder.Request{
		FilePath:    absPath,
		PreviewName: name,
		CacheDir:    m.cacheDir,
		Page:        page,
		Size:        size,
	}

	// The build outlives any single caller: waiters share it, and one
	// caller giving up must not fail the others.
	buildCtx := context.WithoutCancel(ctx)
	ch := m.builds.DoChan(name+kind.Extension(), func() (interface{}, error) {
		if !opts.Force && cachepath.Exists(out) {
			return out, nil
		}
		return m.build(buildCtx, b, kind, req)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			logging.Debug("Preview build shared: %s (%s)", filePath, kind)
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("preview %s of %s: %w", kind, filePath, ctx.Err())
	}

	res, err = m.finish(res)
	if err != nil {
		return nil, err
	}
	m.record(ctx, absPath, res)
	return res, nil
}

func (m *Manager) build(ctx context.Context, b builder.Builder, kind builder.Kind, req builder.Request) (string, error) {
	metrics.PreviewGenerationsInFlight.Inc()
	defer metrics.PreviewGenerationsInFlight.Dec()

	start := time.Now()
	path, err := builder.Build(ctx, b, kind, req)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.PreviewGenerationsTotal.WithLabelValues(b.Name(), string(kind), status).Inc()
	metrics.PreviewGenerationDuration.WithLabelValues(b.Name(), string(kind)).Observe(duration.Seconds())

	if err != nil {
		return "", err
	}
	logging.Debug("Preview generated: %s (%s, %s) in %v", filepath.Base(req.FilePath), b.Name(), kind, duration)
	return path, nil
}

// variant picks the page and size that name the artifact for kind.
func (m *Manager) variant(kind builder.Kind, opts Options) (int, cachepath.Dims) {
	switch kind {
	case builder.KindJPEG:
		size := opts.Size
		if size.IsZero() {
			size = m.defaultSize
		}
		return opts.Page, size
	case builder.KindPDF, builder.KindText:
		return opts.Page, cachepath.Dims{}
	}
	return cachepath.NoPage, cachepath.Dims{}
}

func (m *Manager) finish(res *Result) (*Result, error) {
	info, err := os.Stat(res.Path)
	if err != nil {
		return nil, fmt.Errorf("stat artifact %s: %w", res.Path, err)
	}
	res.Size = info.Size()
	return res, nil
}

func (m *Manager) record(ctx context.Context, source string, res *Result) {
	if m.index == nil {
		return
	}
	err := m.index.Record(ctx, &index.Artifact{
		CacheKey:     res.PreviewName,
		SourcePath:   source,
		MimeType:     res.MimeType,
		Builder:      res.Builder,
		Kind:         string(res.Kind),
		Page:         res.Page,
		ArtifactPath: res.Path,
		Size:         res.Size,
	})
	if err != nil {
		logging.Warn("Failed to index preview %s: %v", res.Path, err)
	}
}

// backfill records a cached artifact the index does not know about yet,
// such as one built by a run without an index.
func (m *Manager) backfill(ctx context.Context, source string, res *Result) {
	if m.index == nil {
		return
	}
	known, err := m.index.Lookup(ctx, res.PreviewName, string(res.Kind))
	if err != nil {
		logging.Warn("Failed to look up preview %s: %v", res.Path, err)
		return
	}
	if known == nil {
		m.record(ctx, source, res)
	}
}

// statSource resolves filePath and checks that it is a regular file.
func statSource(filePath string) (string, os.FileInfo, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("resolve %s: %w", filePath, err)
	}
	info, err := filesystem.StatWithRetry(absPath, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", nil, err
	}
	if !info.Mode().IsRegular() {
		return "", nil, fmt.Errorf("%s: %w", filePath, ErrNotAFile)
	}
	return absPath, info, nil
}

// MimeType returns the detected MIME type of filePath.
func (m *Manager) MimeType(filePath string) (string, error) {
	absPath, _, err := statSource(filePath)
	if err != nil {
		return "", err
	}
	return mimetypes.Detect(absPath)
}

// PageCount returns the number of pages the builder for filePath reports.
func (m *Manager) PageCount(ctx context.Context, filePath string) (int, error) {
	absPath, _, err := statSource(filePath)
	if err != nil {
		return 0, err
	}
	mime, err := mimetypes.Detect(absPath)
	if err != nil {
		return 0, err
	}
	b, err := m.registry.Resolve(mime)
	if err != nil {
		return 0, err
	}
	return b.PageCount(ctx, absPath)
}

// SupportedMimeTypes lists the MIME types some registered builder handles.
func (m *Manager) SupportedMimeTypes() []string {
	return m.registry.MimeTypes()
}

// BuilderInfo describes a registered builder.
type BuilderInfo struct {
	Name      string         `json:"name"`
	MimeTypes []string       `json:"mimeTypes"`
	Kinds     []builder.Kind `json:"kinds"`
}

// Builders describes the registered builders in registration order.
func (m *Manager) Builders() []BuilderInfo {
	var out []BuilderInfo
	for _, b := range m.registry.Builders() {
		out = append(out, BuilderInfo{
			Name:      b.Name(),
			MimeTypes: b.MimeTypes(),
			Kinds:     b.Capabilities().Kinds(),
		})
	}
	return out
}

// Remove deletes every indexed artifact of filePath and returns how many
// were removed. It needs an index.
func (m *Manager) Remove(ctx context.Context, filePath string) (int, error) {
	if m.index == nil {
		return 0, fmt.Errorf("remove previews: %w", ErrNoIndex)
	}
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", filePath, err)
	}
	removed, err := m.index.DeleteBySource(ctx, absPath)
	if err != nil {
		return 0, err
	}
	identities := make(map[string]bool)
	for _, a := range removed {
		if err := os.Remove(a.ArtifactPath); err != nil && !os.IsNotExist(err) {
			logging.Warn("Failed to remove preview %s: %v", a.ArtifactPath, err)
		}
		identity, _, _ := strings.Cut(a.CacheKey, "-")
		identities[identity] = true
	}
	for identity := range identities {
		m.removeUnindexed(identity)
	}
	m.lastCacheUpdate.Store(0)
	return len(removed), nil
}

// removeUnindexed deletes cache files named after identity that the index
// does not track, such as the PDF an office document was converted to.
func (m *Manager) removeUnindexed(identity string) {
	if identity == "" {
		return
	}
	leftovers, err := filepath.Glob(filepath.Join(m.cacheDir, identity+"*"))
	if err != nil {
		logging.Warn("Failed to list leftovers of %s: %v", identity, err)
		return
	}
	for _, path := range leftovers {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logging.Warn("Failed to remove %s: %v", path, err)
		}
	}
}
