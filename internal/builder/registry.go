package builder

import (
	"fmt"
	"sort"
	"time"

	"preview-generator/internal/converter"
	"preview-generator/internal/logging"
	"preview-generator/internal/metrics"
	"preview-generator/internal/mimetypes"
)

// Registry maps MIME types to the builder that handles them.
type Registry struct {
	byMime   map[string]Builder
	builders []Builder
}

// NewRegistry registers candidates in order. A candidate whose
// CheckDependencies fails is skipped; otherwise it is registered for every
// MIME type it declares that no earlier candidate has claimed.
func NewRegistry(candidates ...Builder) *Registry {
	r := &Registry{byMime: make(map[string]Builder)}

	for _, b := range candidates {
		if err := b.CheckDependencies(); err != nil {
			logging.Warn("Preview builder %s disabled: %v", b.Name(), err)
			metrics.BuildersRegistered.WithLabelValues(b.Name()).Set(0)
			continue
		}

		claimed := 0
		for _, mime := range b.MimeTypes() {
			mime = mimetypes.Normalize(mime)
			if owner, ok := r.byMime[mime]; ok {
				logging.Debug("MIME type %s already handled by %s, not registering %s", mime, owner.Name(), b.Name())
				continue
			}
			r.byMime[mime] = b
			claimed++
		}
		if claimed == 0 {
			logging.Debug("Preview builder %s claimed no MIME types", b.Name())
			continue
		}

		r.builders = append(r.builders, b)
		metrics.BuildersRegistered.WithLabelValues(b.Name()).Set(1)
		logging.Info("Preview builder %s registered for %d MIME types %s", b.Name(), claimed, b.Capabilities())
	}

	return r
}

// Resolve returns the builder for mime. Parameters and case are ignored.
func (r *Registry) Resolve(mime string) (Builder, error) {
	if b, ok := r.byMime[mimetypes.Normalize(mime)]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedMimeType, mime)
}

// MimeTypes returns the registered MIME types, sorted.
func (r *Registry) MimeTypes() []string {
	out := make([]string, 0, len(r.byMime))
	for mime := range r.byMime {
		out = append(out, mime)
	}
	sort.Strings(out)
	return out
}

// Builders returns the registered builders in registration order.
func (r *Registry) Builders() []Builder {
	out := make([]Builder, len(r.builders))
	copy(out, r.builders)
	return out
}

// Options configures DefaultCandidates.
type Options struct {
	CacheDir      string
	OfficeBinary  string
	OfficeTimeout time.Duration
}

// DefaultCandidates is the list of known builders in registration order.
// New builder variants are added here.
func DefaultCandidates(opts Options) []Builder {
	office := NewOfficeBuilder(converter.NewOfficeConverter(opts.OfficeBinary, opts.OfficeTimeout), opts.CacheDir)
	return []Builder{
		NewImageBuilder(),
		NewPDFBuilder(),
		office,
		NewPlainTextBuilder(office),
	}
}
