package memory

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"preview-generator/internal/logging"
	"preview-generator/internal/metrics"
)

// Config holds the monitor thresholds.
type Config struct {
	// LimitBytes is the reference limit; 0 uses GOMEMLIMIT.
	LimitBytes int64
	// CriticalWaterMark pauses batch generation (fraction of the limit).
	CriticalWaterMark float64
	// ResumeWaterMark resumes it once usage falls below.
	ResumeWaterMark float64
	CheckInterval   time.Duration
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		CriticalWaterMark: 0.85,
		ResumeWaterMark:   0.7,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor samples heap usage and pauses batch preview generation while it is
// above the critical mark. Without a limit it never pauses.
type Monitor struct {
	config Config
	limit  int64

	mu      sync.Mutex
	current uint64
	paused  bool
	resume  chan struct{}

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMonitor creates a monitor. Call Start to begin sampling.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l < 1<<62 {
			limit = l
		}
	}
	if limit == 0 {
		logging.Debug("Memory monitor: no memory limit, backpressure disabled")
	} else {
		logging.Info("Memory monitor: limit %s, pause at %.0f%%", FormatBytes(limit), config.CriticalWaterMark*100)
	}

	return &Monitor{
		config: config,
		limit:  limit,
		resume: make(chan struct{}),
		stop:   make(chan struct{}),
	}
}

// Start begins sampling in the background.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(m.config.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				var stats runtime.MemStats
				runtime.ReadMemStats(&stats)
				m.observe(stats.Alloc)
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends sampling and releases any waiters.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// observe records a heap sample and flips the paused state at the marks.
func (m *Monitor) observe(alloc uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = alloc
	if m.limit == 0 {
		return
	}

	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case !m.paused && usage >= m.config.CriticalWaterMark:
		logging.Warn("Memory critical (%.1f%% of limit), pausing batch generation", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		go runtime.GC()
	case m.paused && usage < m.config.ResumeWaterMark:
		logging.Info("Memory recovered (%.1f%% of limit), resuming batch generation", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resume)
		m.resume = make(chan struct{})
	}
}

// Wait blocks while generation is paused. It returns ctx.Err() if ctx ends
// first, and nil once work may proceed or the monitor is stopped.
func (m *Monitor) Wait(ctx context.Context) error {
	m.mu.Lock()
	if !m.paused {
		m.mu.Unlock()
		return nil
	}
	resume := m.resume
	m.mu.Unlock()

	select {
	case <-resume:
		return nil
	case <-m.stop:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Paused reports whether generation is currently paused.
func (m *Monitor) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Usage returns the last sampled heap usage as a fraction of the limit.
func (m *Monitor) Usage() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.limit == 0 {
		return 0
	}
	return float64(m.current) / float64(m.limit)
}
