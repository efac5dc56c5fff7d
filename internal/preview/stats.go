package preview

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"preview-generator/internal/logging"
	"preview-generator/internal/metrics"
)

// CacheStats summarises the artifact cache.
type CacheStats struct {
	CacheDir     string         `json:"cacheDir"`
	Bytes        int64          `json:"bytes"`
	Count        int            `json:"count"`
	IndexedKinds map[string]int `json:"indexedKinds,omitempty"`
	LastWarmRun  *time.Time     `json:"lastWarmRun,omitempty"`
}

// CacheSize returns the total size and file count of the cache directory.
// The walk result is reused for two minutes.
func (m *Manager) CacheSize() (int64, int, error) {
	if time.Now().Unix()-m.lastCacheUpdate.Load() < int64(cacheSizeTTL/time.Second) {
		return m.cachedBytes.Load(), int(m.cachedCount.Load()), nil
	}

	m.cacheSizeMu.Lock()
	defer m.cacheSizeMu.Unlock()

	// Another caller may have refreshed while we waited.
	if time.Now().Unix()-m.lastCacheUpdate.Load() < int64(cacheSizeTTL/time.Second) {
		return m.cachedBytes.Load(), int(m.cachedCount.Load()), nil
	}

	var size int64
	var count int
	err := filepath.WalkDir(m.cacheDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != m.cacheDir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		size += info.Size()
		count++
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	m.cachedBytes.Store(size)
	m.cachedCount.Store(int64(count))
	m.lastCacheUpdate.Store(time.Now().Unix())
	return size, count, nil
}

// CacheStats returns the cache size plus index counts when an index is set.
func (m *Manager) CacheStats(ctx context.Context) (CacheStats, error) {
	size, count, err := m.CacheSize()
	if err != nil {
		return CacheStats{}, err
	}
	stats := CacheStats{CacheDir: m.cacheDir, Bytes: size, Count: count}

	if m.index != nil {
		kinds, err := m.index.CountByKind(ctx)
		if err != nil {
			return CacheStats{}, err
		}
		stats.IndexedKinds = kinds

		last, err := m.index.GetLastWarmRun(ctx)
		if err != nil {
			return CacheStats{}, err
		}
		if !last.IsZero() {
			stats.LastWarmRun = &last
		}
	}
	return stats, nil
}

// GetStats implements metrics.StatsProvider.
func (m *Manager) GetStats() metrics.Stats {
	stats, err := m.CacheStats(context.Background())
	if err != nil {
		logging.Warn("Failed to collect cache stats: %v", err)
		return metrics.Stats{}
	}
	return metrics.Stats{
		CacheBytes:     stats.Bytes,
		CacheCount:     stats.Count,
		ArtifactByKind: stats.IndexedKinds,
	}
}
