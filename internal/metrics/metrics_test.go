package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockStatsProvider struct {
	mu    sync.Mutex
	calls int
	stats Stats
}

func (m *mockStatsProvider) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestCollectorCollect(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{
		CacheBytes:     4096,
		CacheCount:     3,
		ArtifactByKind: map[string]int{"jpeg": 2, "json": 1},
	}}

	c := NewCollector(provider, time.Hour)
	c.collect()

	if got := testutil.ToFloat64(PreviewCacheSize); got != 4096 {
		t.Errorf("PreviewCacheSize = %v, want 4096", got)
	}
	if got := testutil.ToFloat64(PreviewCacheCount); got != 3 {
		t.Errorf("PreviewCacheCount = %v, want 3", got)
	}
	if got := testutil.ToFloat64(PreviewIndexedArtifacts.WithLabelValues("jpeg")); got != 2 {
		t.Errorf("indexed jpeg = %v, want 2", got)
	}
	if got := testutil.ToFloat64(PreviewIndexedArtifacts.WithLabelValues("pdf")); got != 0 {
		t.Errorf("indexed pdf = %v, want 0", got)
	}
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockStatsProvider{}
	c := NewCollector(provider, 10*time.Millisecond)
	c.Start()

	deadline := time.Now().Add(time.Second)
	for provider.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Stop()

	if provider.callCount() < 2 {
		t.Errorf("collector ran %d times, want at least 2", provider.callCount())
	}
}

func TestNewCollectorDefaultsInterval(t *testing.T) {
	c := NewCollector(nil, 0)
	if c.interval != time.Minute {
		t.Errorf("interval = %v, want 1m", c.interval)
	}
	c.collect()
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()
	before := testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("stat", "cache"))
	obs.ObserveRetryAttempt("stat", "cache")
	after := testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("stat", "cache"))
	if after-before != 1 {
		t.Errorf("retry attempts delta = %v, want 1", after-before)
	}
}

func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics([]string{"image", "pdf"})

	if n := testutil.CollectAndCount(PreviewGenerationsTotal); n < 2*len(Kinds)*2 {
		t.Errorf("PreviewGenerationsTotal series = %d, want at least %d", n, 2*len(Kinds)*2)
	}
}
