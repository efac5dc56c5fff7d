package preview

import (
	"context"
	"errors"
	"time"

	"preview-generator/internal/builder"
	"preview-generator/internal/logging"
	"preview-generator/internal/workers"

	"golang.org/x/sync/errgroup"
)

// WarmResult is the outcome of one (file, kind) pair during Warm.
type WarmResult struct {
	Path    string       `json:"path"`
	Kind    builder.Kind `json:"kind"`
	Cached  bool         `json:"cached"`
	Skipped bool         `json:"skipped"`
	Err     error        `json:"-"`
}

// WarmSummary totals a Warm run.
type WarmSummary struct {
	Generated int
	Cached    int
	Skipped   int
	Failed    int
}

// Summarize totals results.
func Summarize(results []WarmResult) WarmSummary {
	var s WarmSummary
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Failed++
		case r.Skipped:
			s.Skipped++
		case r.Cached:
			s.Cached++
		default:
			s.Generated++
		}
	}
	return s
}

// Warm generates the default preview of every kind for each path. Work is
// spread over workers.ForCPU goroutines. A failing file does not stop the
// others; kinds a file's builder cannot produce are marked skipped. The
// returned error is only set when ctx ends the run early. Each item first
// waits on the configured Backpressure.
func (m *Manager) Warm(ctx context.Context, paths []string, kinds []builder.Kind) ([]WarmResult, error) {
	start := time.Now()
	results := make([]WarmResult, 0, len(paths)*len(kinds))
	for _, p := range paths {
		for _, k := range kinds {
			results = append(results, WarmResult{Path: p, Kind: k})
		}
	}

	var g errgroup.Group
	g.SetLimit(workers.ForCPU(0))

	for i := range results {
		if ctx.Err() != nil {
			break
		}
		r := &results[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				r.Err = err
				return nil
			}
			if m.backpressure != nil {
				if err := m.backpressure.Wait(ctx); err != nil {
					r.Err = err
					return nil
				}
			}
			res, err := m.Generate(ctx, r.Path, r.Kind, Options{})
			switch {
			case errors.Is(err, builder.ErrUnavailablePreviewType), errors.Is(err, builder.ErrUnsupportedMimeType):
				r.Skipped = true
			case err != nil:
				r.Err = err
				logging.Warn("Warm: %s (%s): %v", r.Path, r.Kind, err)
			default:
				r.Cached = res.Cached
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}

	s := Summarize(results)
	logging.Info("Warm finished in %v: %d generated, %d cached, %d skipped, %d failed",
		time.Since(start), s.Generated, s.Cached, s.Skipped, s.Failed)

	if m.index != nil {
		if err := m.index.SetLastWarmRun(ctx, time.Now()); err != nil {
			logging.Warn("Failed to store last warm run: %v", err)
		}
	}
	m.lastCacheUpdate.Store(0)
	return results, nil
}
